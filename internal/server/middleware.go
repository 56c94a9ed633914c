package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mymarket/backend/internal/security"
)

const bearerPrefix = "bearer "

// accountIDKey is the gin context key holding the authenticated account id.
const accountIDKey = "account_id"

// RequireAccessToken validates the Bearer access token and stores the account
// id in the gin context for protected routes.
func RequireAccessToken(tokens *security.TokenProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
			return
		}
		claims, err := tokens.Verify(token, security.TokenClassAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
			return
		}
		c.Set(accountIDKey, claims.AccountID())
		c.Next()
	}
}

// AccountID returns the authenticated account id set by RequireAccessToken.
func AccountID(c *gin.Context) (string, bool) {
	v, ok := c.Get(accountIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

type contextKey struct{ name string }

var clientIPKey = contextKey{"client_ip"}

// WithClientIP copies the resolved client IP into the request context so
// non-HTTP collaborators (e.g. the audit logger) can read it.
func WithClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), clientIPKey, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ClientIPFromContext returns the client IP set by WithClientIP, or "" if unset.
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// extractBearer returns the Bearer token from an Authorization header value,
// or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
