package ratelimit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(t *testing.T, counter Counter, max int) *gin.Engine {
	t.Helper()
	limiter, err := NewLimiter(counter, "checkout:", max, 30*time.Second)
	require.NoError(t, err)

	router := gin.New()
	router.Use(Middleware(limiter, func(c *gin.Context) string { return c.GetHeader("X-User") }, nil))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return router
}

func hit(router *gin.Engine, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-User", user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareLimits(t *testing.T) {
	router := newLimitedRouter(t, newMemoryCounter(), 1)

	rec := hit(router, "usr_1")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = hit(router, "usr_1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())

	assert.Equal(t, http.StatusCreated, hit(router, "usr_2").Code)
}

func TestMiddlewareFailsOpen(t *testing.T) {
	counter := newMemoryCounter()
	counter.err = errors.New("connection refused")
	router := newLimitedRouter(t, counter, 1)

	assert.Equal(t, http.StatusCreated, hit(router, "usr_1").Code)
	assert.Equal(t, http.StatusCreated, hit(router, "usr_1").Code)
}

func TestMiddlewareWithoutLimiter(t *testing.T) {
	router := gin.New()
	router.Use(Middleware(nil, nil, nil))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, hit(router, "").Code)
}
