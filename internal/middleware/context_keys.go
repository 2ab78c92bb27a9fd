package middleware

import "github.com/gin-gonic/gin"

const (
	userIDKey = contextKey("userID")
	claimsKey = contextKey("claims")
)

// GetUserIDFromContext returns the authenticated subject, if any.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
