package handler

import (
	"net/http"

	"taxengine/internal/middleware"
	"taxengine/internal/service"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
)

type MigrationHandler struct {
	migrationService service.MigrationService
}

func NewMigrationHandler(migrationService service.MigrationService) *MigrationHandler {
	return &MigrationHandler{migrationService: migrationService}
}

func (h *MigrationHandler) RegisterRoutes(router *gin.RouterGroup) {
	migrations := router.Group("/api/migrations")
	migrations.Use(middleware.RequireRole("admin"))
	{
		migrations.POST("/legacy", h.RunLegacyMigration)
	}
}

// RunLegacyMigration loads the hard-coded legacy tax data into the stores.
// Safe to call repeatedly; existing items are skipped.
func (h *MigrationHandler) RunLegacyMigration(c *gin.Context) {
	result, err := h.migrationService.Migrate(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
