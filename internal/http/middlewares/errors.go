package middlewares

import "github.com/gin-gonic/gin"

// abortWithError stops the chain with the same error envelope the handlers
// write, so clients see one shape whichever layer refused the request.
func abortWithError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if id, ok := c.Get(CtxRequestID); ok {
		body["requestId"] = id
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
