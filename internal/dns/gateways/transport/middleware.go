package transport

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haukened/rr-dnsadm/internal/dns/common/log"
)

// requestLogger logs one line per request after it has been served.
func requestLogger(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		fields := map[string]any{
			"method":     method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if c.Writer.Status() >= 500 {
			logger.Warn(fields, "admin request")
			return
		}
		logger.Info(fields, "admin request")
	}
}
