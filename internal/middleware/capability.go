package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/models"
	"github.com/eduvault/eduvault-api/internal/service"
	appErrors "github.com/eduvault/eduvault-api/pkg/errors"
	"github.com/eduvault/eduvault-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the resolved principal.
const ContextPrincipalKey = "currentPrincipal"

// RequireCapability enforces that the authenticated user currently holds
// the given capability. The gate reads the user row on every request, so
// access revocation and role changes take effect on the next call with no
// token reissue.
func RequireCapability(gate *service.AccessGate, capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		principal, err := gate.Require(c.Request.Context(), claims.UserID, capability)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}
