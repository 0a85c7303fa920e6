package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simonhust/trailer/internal/auth"
)

// Context keys set by RequireAdmin.
const (
	ContextKeyUsername = "admin_username"
	ContextKeyRole     = "admin_role"
)

// RequireAdmin validates the Bearer token and stores the admin identity
// in the request context.
func RequireAdmin(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}
