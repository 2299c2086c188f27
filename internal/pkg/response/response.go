package response

import (
	"net/http"

	"imagevault/internal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response. All four keys are always present.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Meta    any    `json:"meta"`
}

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessWithMeta(c *gin.Context, statusCode int, message string, data interface{}, meta interface{}) {
	c.JSON(statusCode, Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Envelope{
		Success: false,
		Message: message,
	})
}

// AbortWithError writes an error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Envelope{
		Success: false,
		Message: message,
	})
}

// FromError maps err's kind to a status code. Internal errors are recorded
// on the context in full and answered with a generic message.
func FromError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := apperror.StatusCode(kind)

	message := apperror.PublicMessage(err)

	if status >= http.StatusInternalServerError {
		// ErrorLogger picks these up with the request context attached.
		_ = c.Error(err)
	}
	if apperror.IsRetryable(err) {
		c.Header("Retry-After", "5")
	}

	Error(c, status, message)
}
