package handler

import (
	"errors"
	"net/http"

	"taxengine/internal/repository"
	"taxengine/internal/service"
	"taxengine/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// errMissingTaxYear rejects requests without a usable tax_year query param.
// Resolution is always explicit per tax year, there is no implicit "current
// year" default.
var errMissingTaxYear = errors.New("tax_year query parameter is required and must be an integer")

// respondError maps domain errors onto HTTP status codes. Integrity
// violations surface as 500 because they mean the store itself is broken.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrOverlap), errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrNotMapped):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrIntegrity):
		status = http.StatusInternalServerError
	}
	c.JSON(status, response.Error(status, err.Error()))
}

// currentUserID reads the JWT subject set by the auth middleware.
func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	return userIDStr
}
