package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/staff-attend-api/internal/middleware"
	"github.com/campushq/staff-attend-api/internal/models"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
)

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id parameter")
	}
	return id, nil
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// currentClaims returns the authenticated claims or an unauthorized error.
func currentClaims(c *gin.Context) (*models.JWTClaims, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	return claims, nil
}
