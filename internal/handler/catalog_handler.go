package handler

import (
	"net/http"

	"deco-front-go/internal/middleware"
	"deco-front-go/internal/service"
	"deco-front-go/pkg/log"
	"deco-front-go/pkg/remote"

	"github.com/gin-gonic/gin"
)

// CatalogHandler 负责单品详情、商品维护与货源管理的远端透传。
// 维护类操作失败时把后端的 detail 文案原样交给调用方展示。
type CatalogHandler struct {
	remote        *remote.Client
	browseService service.BrowseService
}

// NewCatalogHandler 创建一个新的 CatalogHandler 实例。
func NewCatalogHandler(remoteClient *remote.Client, browseService service.BrowseService) *CatalogHandler {
	return &CatalogHandler{remote: remoteClient, browseService: browseService}
}

// GetProduct 返回单个商品的详情。
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.remote.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		log.Errorf("获取商品详情失败: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": product, "message": "success"})
}

// UpdatePrice 修改商品价格，返回更新后的商品。
func (h *CatalogHandler) UpdatePrice(c *gin.Context) {
	var req struct {
		Price    float64 `json:"price" binding:"required"`
		Currency string  `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的价格参数"})
		return
	}
	product, err := h.remote.UpdatePrice(c.Request.Context(), c.Param("slug"), req.Price, req.Currency, middleware.Token(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": product, "message": "success"})
}

// UpdateTitle 修改商品标题。
func (h *CatalogHandler) UpdateTitle(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "标题不能为空"})
		return
	}
	if err := h.remote.UpdateTitle(c.Request.Context(), c.Param("slug"), req.Title, middleware.Token(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// UpdateImage 替换商品主图。
func (h *CatalogHandler) UpdateImage(c *gin.Context) {
	var req struct {
		ImageURL string `json:"image_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "图片地址不能为空"})
		return
	}
	if err := h.remote.UpdateImage(c.Request.Context(), c.Param("slug"), req.ImageURL, middleware.Token(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// DeleteImage 从商品图集中删除一张图片。
func (h *CatalogHandler) DeleteImage(c *gin.Context) {
	var req struct {
		ImageURL string `json:"image_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "图片地址不能为空"})
		return
	}
	if err := h.remote.DeleteImage(c.Request.Context(), c.Param("slug"), req.ImageURL, middleware.Token(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// DeleteProduct 删除一个商品。
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.remote.DeleteProduct(c.Request.Context(), c.Param("slug"), middleware.Token(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// ListSources 返回可用的货源列表。
func (h *CatalogHandler) ListSources(c *gin.Context) {
	sources, err := h.remote.ListSources(c.Request.Context(), middleware.Token(c))
	if err != nil {
		log.Errorf("获取货源列表失败: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": sources, "message": "success"})
}

// RenameSource 重命名一个货源。
func (h *CatalogHandler) RenameSource(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "货源名称不能为空"})
		return
	}
	if err := h.remote.RenameSource(c.Request.Context(), c.Param("id"), req.Name, middleware.Token(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	// 改名后旧的来源标识不再有效，从浏览选择中摘掉
	h.browseService.Engine(middleware.ClientKey(c)).DropSource(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// DeleteSource 删除一个货源及其商品。
func (h *CatalogHandler) DeleteSource(c *gin.Context) {
	if err := h.remote.DeleteSource(c.Request.Context(), c.Param("id"), middleware.Token(c)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.browseService.Engine(middleware.ClientKey(c)).DropSource(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}
