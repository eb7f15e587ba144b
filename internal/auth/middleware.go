package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clubhub/internal/identity"
)

const actorKey = "actor"

// UserAuth enforces bearer JWT tokens and resolves the acting user from the
// identity repository, so downstream handlers work with fresh principal
// state rather than token claims alone.
func UserAuth(signingKey, issuer string, users identity.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		actor, err := users.GetByID(c.Request.Context(), claims.Subject)
		if err != nil || !actor.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown principal"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// Actor returns the authenticated user set by UserAuth.
func Actor(c *gin.Context) (identity.User, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return identity.User{}, false
	}
	actor, ok := v.(identity.User)
	return actor, ok
}
