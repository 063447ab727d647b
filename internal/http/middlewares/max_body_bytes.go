package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies at limit. A declared Content-Length over
// the cap is refused before the handler runs; an undeclared one is cut off
// while reading and surfaces as *http.MaxBytesError from the binder.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			abortWithError(c, http.StatusRequestEntityTooLarge, "payload_too_large",
				"Request body exceeds "+strconv.FormatInt(limit, 10)+" bytes")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
