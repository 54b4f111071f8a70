package handler

import (
	"net/http"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/metrics"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type ThresholdHandler struct {
	thresholdService service.ThresholdService
}

func NewThresholdHandler(thresholdService service.ThresholdService) *ThresholdHandler {
	return &ThresholdHandler{thresholdService: thresholdService}
}

func (h *ThresholdHandler) RegisterRoutes(router *gin.RouterGroup) {
	thresholds := router.Group("/api/thresholds")
	thresholds.Use(middleware.RequireRole("admin", "reviewer", "analyst"))
	{
		thresholds.POST("/minor-income", h.CheckMinorIncome)
		thresholds.POST("/renovation", h.CheckRenovationLimit)
		thresholds.POST("/speculation", h.CheckSpeculation)
	}
}

// CheckMinorIncome applies the Freigrenze cliff to minor other income
func (h *ThresholdHandler) CheckMinorIncome(c *gin.Context) {
	var req service.MinorIncomeCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.thresholdService.CheckMinorIncome(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.ThresholdChecks.WithLabelValues("minor_income").Inc()
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CheckRenovationLimit checks renovation expenses against the percentage
// limit of the building acquisition value
func (h *ThresholdHandler) CheckRenovationLimit(c *gin.Context) {
	var req service.RenovationCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.thresholdService.CheckRenovationLimit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.ThresholdChecks.WithLabelValues("renovation").Inc()
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CheckSpeculation classifies a property sale against the holding-period
// exemption
func (h *ThresholdHandler) CheckSpeculation(c *gin.Context) {
	var req service.SpeculationCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.thresholdService.CheckSpeculation(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.ThresholdChecks.WithLabelValues("speculation").Inc()
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
