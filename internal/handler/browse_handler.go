// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"deco-front-go/internal/middleware"
	"deco-front-go/internal/service"

	"github.com/gin-gonic/gin"
)

// BrowseHandler 负责目录浏览状态的读写。
type BrowseHandler struct {
	browseService service.BrowseService
}

// NewBrowseHandler 创建一个新的 BrowseHandler 实例。
func NewBrowseHandler(browseService service.BrowseService) *BrowseHandler {
	return &BrowseHandler{browseService: browseService}
}

// GetState 返回当前客户端的浏览状态快照。
func (h *BrowseHandler) GetState(c *gin.Context) {
	engine := h.engine(c)
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": engine.State(), "message": "success"})
}

// UpdateFilters 应用一次筛选变更并返回变更后的状态。
func (h *BrowseHandler) UpdateFilters(c *gin.Context) {
	var update service.FilterUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的筛选参数"})
		return
	}
	engine := h.engine(c)
	state := engine.UpdateFilters(c.Request.Context(), update)
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": state, "message": "success"})
}

// NextPage 推进一页并返回追加后的状态。
func (h *BrowseHandler) NextPage(c *gin.Context) {
	engine := h.engine(c)
	state := engine.NextPage(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": state, "message": "success"})
}

// engine 取出客户端对应的浏览引擎，并刷新其持有的 token。
func (h *BrowseHandler) engine(c *gin.Context) *service.BrowseEngine {
	engine := h.browseService.Engine(middleware.ClientKey(c))
	engine.SetToken(middleware.Token(c))
	return engine
}
