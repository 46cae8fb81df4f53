package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/staff-attend-api/internal/models"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
	"github.com/campushq/staff-attend-api/pkg/response"
)

// RoleSelf grants access when the authenticated user targets their own id
// via the :id route parameter.
const RoleSelf = "SELF"

// RequireRoles allows only the listed roles through. Pass RoleSelf alongside
// roles to also admit a user acting on their own resource.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	allowSelf := false
	for _, role := range roles {
		if role == RoleSelf {
			allowSelf = true
			continue
		}
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}

		if _, ok := allowed[string(claims.Role)]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if id, err := strconv.ParseInt(c.Param("id"), 10, 64); err == nil && id == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions"))
		c.Abort()
	}
}

// RequireAdmin is shorthand for admin-only routes.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(string(models.RoleAdmin))
}
