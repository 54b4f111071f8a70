package handler

import (
	"net/http"
	"strconv"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type LawUpdateHandler struct {
	lawUpdateService service.LawUpdateService
}

func NewLawUpdateHandler(lawUpdateService service.LawUpdateService) *LawUpdateHandler {
	return &LawUpdateHandler{lawUpdateService: lawUpdateService}
}

func (h *LawUpdateHandler) RegisterRoutes(router *gin.RouterGroup) {
	updates := router.Group("/api/law-updates")
	{
		updates.GET("", middleware.RequireRole("admin", "reviewer", "analyst"), h.ListUpdates)
		updates.POST("", middleware.RequireRole("admin", "analyst"), h.DetectUpdate)
		updates.POST("/scan", middleware.RequireRole("admin", "analyst"), h.ScanSources)
		updates.POST("/:id/analyze", middleware.RequireRole("admin", "analyst"), h.AnalyzeUpdate)
		updates.PUT("/:id/review", middleware.RequireRole("admin", "reviewer"), h.ReviewUpdate)
	}
}

// ListUpdates returns law updates, optionally filtered by status
func (h *LawUpdateHandler) ListUpdates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := service.LawUpdateFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}

	updates, total, err := h.lawUpdateService.ListUpdates(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   updates,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// DetectUpdate records an externally reported legislative change candidate
func (h *LawUpdateHandler) DetectUpdate(c *gin.Context) {
	var req service.DetectLawUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	update, err := h.lawUpdateService.Detect(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, update))
}

// ScanSources polls the configured legal source for new candidates
func (h *LawUpdateHandler) ScanSources(c *gin.Context) {
	created, err := h.lawUpdateService.Scan(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"detected": created}))
}

// AnalyzeUpdate runs the relevance classifier on a detected update
func (h *LawUpdateHandler) AnalyzeUpdate(c *gin.Context) {
	update, err := h.lawUpdateService.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, update))
}

// ReviewUpdate approves or rejects a pending law update. Approval applies
// the produced config/rule changes atomically.
func (h *LawUpdateHandler) ReviewUpdate(c *gin.Context) {
	var req service.ReviewLawUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	update, err := h.lawUpdateService.Review(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, update))
}
