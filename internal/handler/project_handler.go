package handler

import (
	"errors"
	"net/http"

	"deco-front-go/internal/middleware"
	"deco-front-go/internal/model"
	"deco-front-go/internal/service"
	"deco-front-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ProjectHandler 负责项目（方案看板）集合的增删改查。
type ProjectHandler struct {
	projectService service.ProjectService
}

// NewProjectHandler 创建一个新的 ProjectHandler 实例。
func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// List 返回客户端的项目集合。
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c))
	if err != nil {
		log.Errorf("加载项目集合失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "加载项目失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": projects, "message": "success"})
}

// Create 新建一个项目，可附带一件种子商品。
func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		Name string         `json:"name" binding:"required"`
		Item *model.Product `json:"item"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "项目名称不能为空"})
		return
	}
	project, err := h.projectService.Create(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c), req.Name, req.Item)
	if err != nil {
		log.Errorf("创建项目失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建项目失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": project, "message": "success"})
}

// Rename 修改项目名称。
func (h *ProjectHandler) Rename(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "项目名称不能为空"})
		return
	}
	projects, err := h.projectService.Rename(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c), c.Param("id"), req.Name)
	if h.respondError(c, err, "重命名项目失败") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": projects, "message": "success"})
}

// Delete 删除一个项目。
func (h *ProjectHandler) Delete(c *gin.Context) {
	projects, err := h.projectService.Delete(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c), c.Param("id"))
	if h.respondError(c, err, "删除项目失败") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": projects, "message": "success"})
}

// AddItem 向项目中加入一件商品。重复加入同一商品是幂等空操作。
func (h *ProjectHandler) AddItem(c *gin.Context) {
	var item model.Product
	if err := c.ShouldBindJSON(&item); err != nil || item.Slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的商品数据"})
		return
	}
	projects, err := h.projectService.AddItem(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c), c.Param("id"), item)
	if h.respondError(c, err, "添加商品失败") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": projects, "message": "success"})
}

// RemoveItem 按 slug 从项目中移除商品。
func (h *ProjectHandler) RemoveItem(c *gin.Context) {
	projects, err := h.projectService.RemoveItem(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c), c.Param("id"), c.Param("slug"))
	if h.respondError(c, err, "移除商品失败") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": projects, "message": "success"})
}

// respondError 统一处理项目操作的错误响应；有错误时返回 true。
func (h *ProjectHandler) respondError(c *gin.Context, err error, message string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, service.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目不存在"})
		return true
	}
	log.Errorf("%s: %v", message, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	return true
}
