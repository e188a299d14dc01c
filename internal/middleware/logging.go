// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"strings"
	"time"

	"deco-front-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger 是一个 Gin 中间件，用于记录请求日志。
// 不捕获请求与响应体：导入与图片上传是大体积 multipart，整体缓存代价太高。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		contentType := c.ContentType()
		// multipart 边界串没有日志价值
		if idx := strings.Index(contentType, ";"); idx >= 0 {
			contentType = contentType[:idx]
		}

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"contentType", contentType,
			"clientKey", ClientKey(c),
		)
	}
}
