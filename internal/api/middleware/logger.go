package middleware

import (
	"time"

	"promosync/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger emits one access line per request through the shared logger,
// so request logs honor the configured level like everything else.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= 500 {
			log.Error("%s %s %d %s %s", c.Request.Method, path, status, latency, c.ClientIP())
			return
		}
		log.Info("%s %s %d %s %s", c.Request.Method, path, status, latency, c.ClientIP())
	}
}
