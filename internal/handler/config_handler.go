package handler

import (
	"net/http"
	"strconv"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/pagination"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	configService service.ConfigService
}

func NewConfigHandler(configService service.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

func (h *ConfigHandler) RegisterRoutes(router *gin.RouterGroup) {
	configs := router.Group("/api/configs")
	{
		configs.GET("", middleware.RequireRole("admin", "reviewer", "analyst"), h.ListConfigs)
		configs.GET("/:key", middleware.RequireRole("admin", "reviewer", "analyst"), h.GetConfig)
		configs.GET("/:key/versions", middleware.RequireRole("admin", "reviewer", "analyst"), h.ListVersions)
		configs.POST("", middleware.RequireRole("admin"), h.CreateConfig)
		configs.PUT("/:key/deactivate", middleware.RequireRole("admin"), h.DeactivateConfig)
	}
}

// GetConfig resolves the single active config entry for a key and tax year
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	taxYear, err := taxYearQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	entry, err := h.configService.GetConfig(c.Request.Context(), c.Param("key"), taxYear)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// ListConfigs returns all config entries, paginated
func (h *ConfigHandler) ListConfigs(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.configService.ListConfigs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   entries,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ListVersions returns the full version history of a config key
func (h *ConfigHandler) ListVersions(c *gin.Context) {
	versions, err := h.configService.ListVersions(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, versions))
}

// CreateConfig creates a new config entry version, closing the open
// predecessor window
func (h *ConfigHandler) CreateConfig(c *gin.Context) {
	var req service.CreateConfigEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.configService.CreateConfig(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// DeactivateConfig deactivates the entry covering the given tax year
func (h *ConfigHandler) DeactivateConfig(c *gin.Context) {
	taxYear, err := taxYearQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	entry, err := h.configService.DeactivateConfig(c.Request.Context(), c.Param("key"), taxYear, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// taxYearQuery parses the mandatory tax_year query parameter.
func taxYearQuery(c *gin.Context) (int, error) {
	raw := c.Query("tax_year")
	taxYear, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errMissingTaxYear
	}
	return taxYear, nil
}
