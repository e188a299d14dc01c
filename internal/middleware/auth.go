// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"strings"

	"deco-front-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// 上下文键。
const (
	// CtxToken 是原样转发给远端后端的 Bearer token（可能为空）。
	CtxToken = "backend_token"
	// CtxClientKey 是状态分键用的客户端标识。
	CtxClientKey = "client_key"
)

// anonymousKey 是既无 token 又无显式标识头的客户端的共享键。
const anonymousKey = "anonymous"

// ClientIdentity 创建一个识别客户端身份的中间件。所有请求都放行：
// 本服务不做鉴权，token 原样透传给远端后端，由后端决定接受与否。
// 状态分键依次尝试 token 的 subject、X-Client-ID 头，最后退回匿名键。
func ClientIdentity(parser *token.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		const bearerPrefix = "Bearer "
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, bearerPrefix) {
			tokenString = strings.TrimPrefix(authHeader, bearerPrefix)
		}
		c.Set(CtxToken, tokenString)

		clientKey := ""
		if tokenString != "" {
			if sub, err := parser.Subject(tokenString); err == nil {
				clientKey = sub
			}
		}
		if clientKey == "" {
			clientKey = c.GetHeader("X-Client-ID")
		}
		if clientKey == "" {
			clientKey = anonymousKey
		}
		c.Set(CtxClientKey, clientKey)

		c.Next()
	}
}

// Token 从上下文取出 Bearer token，可能为空字符串。
func Token(c *gin.Context) string {
	return c.GetString(CtxToken)
}

// ClientKey 从上下文取出客户端标识。
func ClientKey(c *gin.Context) string {
	return c.GetString(CtxClientKey)
}
