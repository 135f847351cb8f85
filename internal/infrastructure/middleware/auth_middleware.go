package middleware

import (
	"net/http"
	"strings"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/services"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		// Store actor info in context
		c.Set("actor_id", claims.ActorID)
		c.Set("actor_name", claims.Name)
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor set by AuthMiddleware.
func ActorFromContext(c *gin.Context) (domain.ActorID, bool) {
	val, exists := c.Get("actor_id")
	if !exists {
		return "", false
	}
	actorID, ok := val.(domain.ActorID)
	return actorID, ok
}
