package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/server/http/middleware"
)

// CurrentPrincipal extracts the authenticated caller from context.
func CurrentPrincipal(c *gin.Context) (model.Principal, bool) {
	val, ok := c.Get(middleware.PrincipalContextKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := val.(model.Principal)
	return principal, ok && principal.ID != ""
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, middleware.ErrorBody(c, message))
}
