package handler

import (
	"errors"
	"net/http"

	"deco-front-go/internal/middleware"
	"deco-front-go/internal/model"
	"deco-front-go/pkg/log"
	"deco-front-go/pkg/remote"

	"github.com/gin-gonic/gin"
)

// AccountHandler 负责经理名片资料、汇率与报价单打印。
type AccountHandler struct {
	remote *remote.Client
}

// NewAccountHandler 创建一个新的 AccountHandler 实例。
func NewAccountHandler(remoteClient *remote.Client) *AccountHandler {
	return &AccountHandler{remote: remoteClient}
}

// GetProfile 返回经理名片资料。
func (h *AccountHandler) GetProfile(c *gin.Context) {
	profile, err := h.remote.GetProfile(c.Request.Context(), middleware.Token(c))
	if err != nil {
		log.Errorf("获取资料失败: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": profile, "message": "success"})
}

// SaveProfile 保存经理名片资料。超时是独立的失败类别，前端据此提示重试。
func (h *AccountHandler) SaveProfile(c *gin.Context) {
	var profile model.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的资料数据"})
		return
	}
	saved, err := h.remote.SaveProfile(c.Request.Context(), profile, middleware.Token(c))
	if errors.Is(err, remote.ErrSaveTimeout) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "保存资料超时，请稍后重试"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": saved, "message": "success"})
}

// CurrencyRate 返回当前汇率。该接口永不失败，最坏情况给出回退汇率。
func (h *AccountHandler) CurrencyRate(c *gin.Context) {
	rate := h.remote.CurrencyRate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": rate, "message": "success"})
}

// PrintProject 返回服务端渲染的报价单 HTML。
func (h *AccountHandler) PrintProject(c *gin.Context) {
	html, err := h.remote.PrintProject(c.Request.Context(), c.Param("slug"), middleware.Token(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
