package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tkd-core/dojo-api/internal/identity"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
	"github.com/tkd-core/dojo-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated principal.
const ContextUserKey = "currentUser"

// TokenVerifier checks bearer tokens issued by the identity provider.
type TokenVerifier interface {
	Verify(token string) (identity.Principal, error)
}

// Auth protects routes by requiring a valid bearer token.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token"))
			c.Abort()
			return
		}

		attach(c, principal)
		c.Next()
	}
}

// PrincipalFromContext returns the principal set by Auth.
func PrincipalFromContext(c *gin.Context) (identity.Principal, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return identity.Principal{}, false
	}
	principal, ok := value.(identity.Principal)
	return principal, ok
}

func attach(c *gin.Context, principal identity.Principal) {
	c.Set(ContextUserKey, principal)
	c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), principal))
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
