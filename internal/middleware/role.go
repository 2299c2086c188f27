package middleware

import (
	"net/http"

	"imagevault/internal/domain"
	"imagevault/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures that the authenticated user has the specified role
func RequireRole(requiredRole domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			response.AbortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		if r, _ := role.(string); r != string(requiredRole) {
			response.AbortWithError(c, http.StatusForbidden, "Forbidden action")
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
