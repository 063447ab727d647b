package middlewares

import (
	"net/http"

	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/policy"
	"github.com/gin-gonic/gin"
)

// RequirePermission rejects callers whose token role lacks p. The lifecycle
// layer checks again against the stored user; this only fails fast.
func (m *AuthMiddleware) RequirePermission(p policy.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if !policy.HasPermission(user.Role(role), p) {
			abortWithError(c, http.StatusForbidden, "missing_permission", "Role "+role+" lacks "+string(p))
			return
		}
		c.Next()
	}
}
