package handler

import (
	"net/http"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/pagination"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type RuleHandler struct {
	ruleService service.RuleService
}

func NewRuleHandler(ruleService service.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

func (h *RuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	rules := router.Group("/api/rules")
	{
		rules.GET("", middleware.RequireRole("admin", "reviewer", "analyst"), h.ListRules)
		rules.GET("/active", middleware.RequireRole("admin", "reviewer", "analyst"), h.ListActiveRules)
		rules.GET("/:code", middleware.RequireRole("admin", "reviewer", "analyst"), h.GetRule)
		rules.GET("/:code/versions", middleware.RequireRole("admin", "reviewer", "analyst"), h.ListVersions)
		rules.POST("", middleware.RequireRole("admin"), h.CreateRuleVersion)
		rules.PUT("/:code/deactivate", middleware.RequireRole("admin"), h.DeactivateRule)
	}
}

// GetRule resolves the single active rule version for a code and tax year
func (h *RuleHandler) GetRule(c *gin.Context) {
	taxYear, err := taxYearQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	rule, err := h.ruleService.GetRule(c.Request.Context(), c.Param("code"), taxYear)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// ListActiveRules returns the active rules covering a tax year, optionally
// filtered by rule type
func (h *RuleHandler) ListActiveRules(c *gin.Context) {
	taxYear, err := taxYearQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	rules, err := h.ruleService.ListActiveRules(c.Request.Context(), c.Query("type"), taxYear)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rules))
}

// ListRules returns all rule versions, paginated
func (h *RuleHandler) ListRules(c *gin.Context) {
	params := pagination.Parse(c)

	rules, total, err := h.ruleService.ListRules(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   rules,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ListVersions returns the full version history of a rule code
func (h *RuleHandler) ListVersions(c *gin.Context) {
	versions, err := h.ruleService.ListVersions(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, versions))
}

// CreateRuleVersion creates a new rule version, closing the open predecessor
// window
func (h *RuleHandler) CreateRuleVersion(c *gin.Context) {
	var req service.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.ruleService.CreateRuleVersion(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// DeactivateRule deactivates the rule version covering the given tax year
func (h *RuleHandler) DeactivateRule(c *gin.Context) {
	taxYear, err := taxYearQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	rule, err := h.ruleService.DeactivateRule(c.Request.Context(), c.Param("code"), taxYear, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}
