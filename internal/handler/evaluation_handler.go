package handler

import (
	"net/http"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type EvaluationHandler struct {
	evaluationService service.EvaluationService
}

func NewEvaluationHandler(evaluationService service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

func (h *EvaluationHandler) RegisterRoutes(router *gin.RouterGroup) {
	evaluations := router.Group("/api/evaluations")
	evaluations.Use(middleware.RequireRole("admin", "reviewer", "analyst"))
	{
		evaluations.POST("", h.EvaluateRule)
	}
}

// EvaluateRule dry-runs a rule version against a sample input and returns
// the full evaluation trace
func (h *EvaluationHandler) EvaluateRule(c *gin.Context) {
	var req service.EvaluateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	trace, err := h.evaluationService.Evaluate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, trace))
}
