package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminChecker reports whether a uid may open the teacher monitor.
type AdminChecker interface {
	IsAdmin(uid string) bool
}

// RequireAdmin rejects callers outside the admin allow-list. It must run
// after AuthMiddleware.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(ContextUserID)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}
		if !checker.IsAdmin(uid) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "관리자 권한이 필요합니다."})
			return
		}
		c.Next()
	}
}
