package middleware

import (
	"github.com/gin-gonic/gin"

	"forum-server/internal/utils"
)

// ForumAccess gates forum routes on ban and revoked-access state. The check
// reads the store on every request: token claims can outlive a revocation.
// Staff are exempt.
func ForumAccess(ensure func(userID string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.IsStaff() {
			c.Next()
			return
		}
		if err := ensure(actor.ID); err != nil {
			utils.RespondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
