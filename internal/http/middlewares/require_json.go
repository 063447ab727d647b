package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON refuses bodies that are not declared as JSON. Structured
// suffixes such as application/merge-patch+json are accepted.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isJSONMediaType(c.GetHeader("Content-Type")) {
			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
			return
		}
		c.Next()
	}
}

func isJSONMediaType(header string) bool {
	if header == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mt == "application/json" || (strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}
