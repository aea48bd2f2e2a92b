package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/payledger/internal/pkg/correlation"
)

// RequestIDContextKey is the gin context key holding the request id.
const RequestIDContextKey = "requestID"

// RequestID reuses the inbound X-Request-Id or generates one, stores it on
// the request context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, id := correlation.EnsureRequestID(c.Request.Context(), c.GetHeader(correlation.HeaderRequestID))
		c.Request = c.Request.WithContext(ctx)
		c.Set(RequestIDContextKey, id)
		c.Header(correlation.HeaderRequestID, id)
		c.Next()
	}
}
