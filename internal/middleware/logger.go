package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"imagevault/internal/pkg/apperror"
	"imagevault/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextRequestID = "request_id"

// RequestID keeps the caller's X-Request-ID or assigns a new one, and
// echoes it back on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// ErrorLogger recovers panics and logs every error handlers attached with
// c.Error, together with the caller identity and request id.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				logRequestError(c, start, "panic", fmt.Sprintf("%v", recovered), debug.Stack())
				response.AbortWithError(c, http.StatusInternalServerError, "Internal server error")
				return
			}

			for _, ginErr := range c.Errors {
				logRequestError(c, start, string(apperror.KindOf(ginErr.Err)), ginErr.Error(), nil)
			}
			if len(c.Errors) == 0 && c.Writer.Status() >= http.StatusInternalServerError {
				logRequestError(c, start, "unreported", http.StatusText(c.Writer.Status()), nil)
			}
		}()

		c.Next()
	}
}

func logRequestError(c *gin.Context, start time.Time, kind, message string, stack []byte) {
	line := fmt.Sprintf(
		"request_error kind=%s status=%d method=%s path=%s user_id=%d request_id=%s latency=%s error=%q",
		kind,
		c.Writer.Status(),
		c.Request.Method,
		c.FullPath(),
		c.GetInt64(ContextUserID),
		requestID(c),
		time.Since(start).Round(time.Millisecond),
		message,
	)
	if stack != nil {
		line += "\n" + string(stack)
	}
	log.Print(line)
}

func requestID(c *gin.Context) string {
	if id := c.GetString(ContextRequestID); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}
