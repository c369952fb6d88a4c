package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
	"github.com/tkd-core/dojo-api/pkg/response"
)

// RequireRole lets the request through when the principal carries any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, role := range roles {
			if principal.HasRole(role) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
