package middlewares

// gin.Context keys set by the middlewares in this package.
const (
	CtxRequestID = "request_id"
	CtxEventID   = "event_id"

	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"
	ctxRoleKey   = "auth.role"
)
