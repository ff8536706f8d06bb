package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	sessionsvc "storefront/internal/service/session"
)

const identityCtxKey = "identity"

// identityMiddleware resolves the bearer token to an identity with its
// role claim fixed at session issue time.
func identityMiddleware(sessions *sessionsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		identity, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(identityCtxKey, identity)
		c.Next()
	}
}

// adminMiddleware gates a route group on the resolved role claim. It never
// inspects emails or re-derives the role.
func adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		if identity.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) sessionsvc.Identity {
	v, ok := c.Get(identityCtxKey)
	if !ok {
		return sessionsvc.Identity{}
	}
	identity, _ := v.(sessionsvc.Identity)
	return identity
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
