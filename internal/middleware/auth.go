package middleware

import (
	"net/http"
	"strings"

	"imagevault/internal/pkg/jwt"
	"imagevault/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// JWTAuth verifies the bearer token and puts the caller identity on the
// gin context. Handlers read it with c.GetInt64("user_id").
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, reason := bearerToken(c.GetHeader("Authorization"))
		if reason != "" {
			response.AbortWithError(c, http.StatusUnauthorized, reason)
			return
		}

		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// bearerToken returns the token or a client-facing reason it is missing.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "Authorization header is required"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "Authorization header must use the Bearer scheme"
	}
	return strings.TrimSpace(parts[1]), ""
}
