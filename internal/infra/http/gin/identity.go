package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

// userIDHeader carries the caller id resolved by the gateway in front of the API.
const userIDHeader = "X-User-ID"

const principalContextKey = "rentshare.principal"

type principal struct {
	ID string
}

// Identity stores the caller from X-User-ID. Requests without it stay
// anonymous and only reach public routes.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(userIDHeader)); id != "" {
			setPrincipal(c, principal{ID: id})
			c.Set("user_id", id)
		}
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// viewerID is the caller id or empty for anonymous requests.
func viewerID(c *gin.Context) string {
	p, _ := currentPrincipal(c)
	return p.ID
}

func requireUser(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user identity required"})
		return principal{}, false
	}
	return p, true
}
