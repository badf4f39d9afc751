package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/pkg/api"
)

// ClaimsKey is the gin context key holding the verified *auth.Claims.
const ClaimsKey = "auth.claims"

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth requires a valid "Authorization: Bearer <jwt>" header carrying an admin token.
// Employee tokens are only good for resolving their own order.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.UnauthorizedError("Missing or malformed Authorization header"))
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.UnauthorizedError("Invalid or expired token"))
			return
		}
		if err := claims.Require(auth.RoleAdmin); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ForbiddenError("Admin token required"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Claims returns the claims stored by Auth, if any.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
