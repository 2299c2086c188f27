package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"

	"imagevault/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// APIKey requires the X-API-Key header to equal key. An empty key disables
// the check.
func APIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		got := c.GetHeader("X-API-Key")
		if got == "" {
			logAuthFailure(c, http.StatusUnauthorized, "missing_api_key")
			response.AbortWithError(c, http.StatusUnauthorized, "API key is required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			logAuthFailure(c, http.StatusUnauthorized, "invalid_api_key")
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid API key")
			return
		}

		c.Next()
	}
}

func logAuthFailure(c *gin.Context, status int, reason string) {
	log.Printf("api_key_auth status=%d path=%s client_ip=%s request_id=%s reason=%s",
		status, c.Request.URL.Path, c.ClientIP(), requestID(c), reason)
}
