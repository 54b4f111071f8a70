package handler

import (
	"net/http"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/api/categories")
	categories.Use(middleware.RequireRole("admin", "reviewer", "analyst"))
	{
		categories.GET("", h.SearchCategories)
		categories.GET("/:id", h.ResolveCategory)
	}
}

// ResolveCategory returns a category with its account mapping
func (h *CategoryHandler) ResolveCategory(c *gin.Context) {
	category, err := h.categoryService.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// SearchCategories returns categories matching the filter text, grouped by type
func (h *CategoryHandler) SearchCategories(c *gin.Context) {
	groups, err := h.categoryService.Search(c.Request.Context(), c.Query("filter"), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}
