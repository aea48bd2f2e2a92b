package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/payledger/internal/pkg/correlation"
	"github.com/polkiloo/payledger/internal/server/http/dto"
)

// ErrorBody builds the failure payload echoing the request id.
func ErrorBody(c *gin.Context, message string) dto.ErrorResponse {
	return dto.ErrorResponse{Error: message, RequestID: correlation.RequestIDFromContext(c.Request.Context())}
}

// AbortWithError stops the chain with a JSON failure payload.
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody(c, message))
}
