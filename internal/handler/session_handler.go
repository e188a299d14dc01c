package handler

import (
	"errors"
	"net/http"

	"deco-front-go/internal/middleware"
	"deco-front-go/internal/service"
	"deco-front-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SessionHandler 负责对话会话的管理：历史列表、归档、切换与删除。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Transcript 返回当前活动对话。
func (h *SessionHandler) Transcript(c *gin.Context) {
	id, messages := h.sessionService.Transcript(middleware.ClientKey(c))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"id": id, "messages": messages}, "message": "success"})
}

// List 返回历史会话列表。
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessionService.List(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c))
	if err != nil {
		log.Errorf("加载历史会话失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "加载历史会话失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": sessions, "message": "success"})
}

// Save 把当前活动对话归档进历史列表。归档的持久化失败在服务层降级为日志。
func (h *SessionHandler) Save(c *gin.Context) {
	sessions := h.sessionService.SaveActive(c.Request.Context(), middleware.ClientKey(c))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": sessions, "message": "success"})
}

// New 归档当前对话并开启新对话，返回新对话的消息。
func (h *SessionHandler) New(c *gin.Context) {
	messages := h.sessionService.StartNew(c.Request.Context(), middleware.ClientKey(c))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": messages, "message": "success"})
}

// Switch 归档当前对话并切换到目标会话。
func (h *SessionHandler) Switch(c *gin.Context) {
	messages, err := h.sessionService.Switch(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c), c.Param("id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		return
	}
	if err != nil {
		log.Errorf("切换会话失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "切换会话失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": messages, "message": "success"})
}

// Delete 从历史列表中删除一个会话。
func (h *SessionHandler) Delete(c *gin.Context) {
	sessions, err := h.sessionService.Delete(c.Request.Context(), middleware.ClientKey(c), c.Param("id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		return
	}
	if err != nil {
		log.Errorf("删除会话失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除会话失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": sessions, "message": "success"})
}
