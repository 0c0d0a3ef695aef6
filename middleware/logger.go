package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		actor := CurrentActor(c)
		log.Printf("%s %s %s %d %s actor=%s",
			c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), latency.String(), actor.Label())
	}
}
