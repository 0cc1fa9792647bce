package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"forum-server/internal/auth"
	"forum-server/internal/services"
	"forum-server/internal/utils"
)

const (
	ContextActor = "actor"
	ContextToken = "token"
)

// Auth validates the bearer token, rejects revoked tokens, and stores the
// actor and raw token on the context for downstream handlers.
func Auth(secret []byte, revoked func(token string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, utils.CodeUnauth, "missing or malformed authorization header", nil))
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := auth.ParseToken(token, secret)
		if err != nil {
			utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, utils.CodeUnauth, "invalid or expired token", nil))
			c.Abort()
			return
		}
		if revoked(token) {
			utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, utils.CodeUnauth, "token revoked", nil))
			c.Abort()
			return
		}

		c.Set(ContextActor, services.Actor{
			ID:        claims.ID,
			Role:      claims.Role,
			StaffRole: claims.StaffRole,
		})
		c.Set(ContextToken, token)
		c.Next()
	}
}

// ActorFrom returns the actor stored by Auth. Only meaningful on routes
// behind it.
func ActorFrom(c *gin.Context) services.Actor {
	v, _ := c.Get(ContextActor)
	actor, _ := v.(services.Actor)
	return actor
}

func TokenFrom(c *gin.Context) string {
	v, _ := c.Get(ContextToken)
	token, _ := v.(string)
	return token
}

// Staff allows managers and admins through.
func Staff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).IsStaff() {
			utils.RespondError(c, utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "staff only", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Admin allows admins only.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).IsAdmin() {
			utils.RespondError(c, utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "admin only", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
