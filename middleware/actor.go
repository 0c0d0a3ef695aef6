package middleware

import (
	"net/http"
	"strings"

	"hotel-booking/services"
	"hotel-booking/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Actor reads the caller identity forwarded by the upstream auth layer.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, services.Actor{
			ID:   strings.TrimSpace(c.GetHeader("X-Actor-ID")),
			Name: strings.TrimSpace(c.GetHeader("X-Actor-Name")),
			Role: strings.ToLower(strings.TrimSpace(c.GetHeader("X-Actor-Role"))),
			IP:   c.ClientIP(),
		})
		c.Next()
	}
}

func CurrentActor(c *gin.Context) services.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(services.Actor); ok {
			return a
		}
	}
	return services.Actor{IP: c.ClientIP()}
}

// RequireRole rejects requests whose actor role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		for _, r := range roles {
			if strings.EqualFold(actor.Role, r) {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, "error.forbidden", "This action requires role: "+strings.Join(roles, ", "))
		c.Abort()
	}
}
