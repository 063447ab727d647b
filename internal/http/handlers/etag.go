package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/geocoder89/eventmanager/internal/domain/event"
	"github.com/gin-gonic/gin"
)

// RespondEvent writes e with a validator derived from its store version, so
// a client holding the current version gets a 304.
func RespondEvent(ctx *gin.Context, status int, e event.Event) {
	etag := eventETag(e)
	ctx.Header("ETag", etag)

	if status == http.StatusOK && ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, e)
}

func eventETag(e event.Event) string {
	return `W/"` + e.ID + "-" + strconv.FormatInt(e.Version, 10) + `"`
}

func ifNoneMatchMatches(headerValue, currentETag string) bool {
	if strings.TrimSpace(headerValue) == "" || strings.TrimSpace(currentETag) == "" {
		return false
	}

	if strings.TrimSpace(headerValue) == "*" {
		return true
	}

	current := normalizeETag(currentETag)

	for _, part := range strings.Split(headerValue, ",") {
		if normalizeETag(part) == current {
			return true
		}
	}

	return false
}

func normalizeETag(raw string) string {
	v := strings.TrimSpace(raw)

	// weak and strong forms compare equal
	if strings.HasPrefix(v, "W/") {
		v = strings.TrimSpace(strings.TrimPrefix(v, "W/"))
	}

	return v
}
