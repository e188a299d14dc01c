package handler

import (
	"net/http"

	"deco-front-go/internal/middleware"
	"deco-front-go/internal/service"
	"deco-front-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ImportHandler 负责接收目录导入文件并异步入队。
type ImportHandler struct {
	importService service.ImportService
}

// NewImportHandler 创建一个新的 ImportHandler 实例。
func NewImportHandler(importService service.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// Upload 接收 multipart 表单（file + name），暂存文件并投递导入任务。
// 返回 202 与对象名：导入是异步的，结果以新货源出现在列表里为准。
func (h *ImportHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少导入文件"})
		return
	}
	sourceName := c.PostForm("name")
	if sourceName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "货源名称不能为空"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("读取导入文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取导入文件失败"})
		return
	}
	defer file.Close()

	objectName, err := h.importService.Enqueue(
		c.Request.Context(),
		middleware.ClientKey(c),
		middleware.Token(c),
		fileHeader.Filename,
		sourceName,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		log.Errorf("导入任务入队失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导入任务入队失败"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": 202, "data": gin.H{"object_name": objectName}, "message": "导入任务已接受"})
}
