package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nestify/discovery/internal/query"
)

// AuthRequired rejects anonymous requests.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetActor(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

// AdminRequired rejects callers without the admin role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// ActorScope is the visibility scope of the caller's own listings. Admins
// see everything.
func ActorScope(c *gin.Context) query.Scope {
	actor := GetActor(c)
	switch {
	case actor == nil:
		return query.Public()
	case actor.IsAdmin():
		return query.Admin()
	default:
		return query.Owner(actor.UserID)
	}
}
