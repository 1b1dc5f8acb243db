package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eco-report-api/internal/models"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
	"github.com/noah-isme/eco-report-api/pkg/response"
)

// RequireRoles allows callers holding one of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return rbac(false, roles)
}

// RequireRolesOrSelf additionally allows callers whose id matches the :id
// route parameter.
func RequireRolesOrSelf(roles ...models.UserRole) gin.HandlerFunc {
	return rbac(true, roles)
}

// RequireAdmin is RequireRoles(models.RoleAdmin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

func rbac(allowSelf bool, roles []models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[actor.Role]; ok {
			c.Next()
			return
		}
		if allowSelf && actor.Owns(c.Param("id")) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
