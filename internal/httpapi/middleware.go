package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vigilhq/vigil/internal/domain/user"
	authsvc "github.com/vigilhq/vigil/internal/services/auth"
)

const identityKey = "identity"

// RequireAuth accepts the access token from the auth cookie (browser
// clients) or an Authorization bearer header (API clients).
func (rt *Router) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := rt.accessToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		id, err := rt.auth.ParseAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func (rt *Router) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := identity(c); !ok || id.Role != user.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func (rt *Router) accessToken(c *gin.Context) string {
	if v, err := c.Cookie(rt.cookies.AccessName); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func identity(c *gin.Context) (authsvc.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return authsvc.Identity{}, false
	}
	id, ok := v.(authsvc.Identity)
	return id, ok
}
