package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DecompressRequest inflates gzip encoded request bodies. A positive
// maxBytes caps the inflated size; reads past it fail.
func DecompressRequest(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Content-Encoding"), "gzip") {
			c.Next()
			return
		}

		compressed := c.Request.Body
		zr, err := gzip.NewReader(compressed)
		if err != nil {
			AbortWithError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		defer zr.Close()
		defer compressed.Close()

		var body io.ReadCloser = io.NopCloser(zr)
		if maxBytes > 0 {
			body = http.MaxBytesReader(c.Writer, body, maxBytes)
		}
		c.Request.Body = body
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}
