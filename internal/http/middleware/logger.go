package middleware

import (
	"strconv"
	"time"

	"github.com/Harsha992004/online-bus-booking-app/internal/metrics"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Logger writes one access line per request and counts it by route.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequest(c.Request.Method, route, strconv.Itoa(status))

		entry := log.WithFields(log.Fields{
			"request_id": GetRequestID(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": float64(latency.Microseconds()) / 1000.0,
			"ip":         c.ClientIP(),
		})
		if status >= 500 {
			entry.Warn("http")
			return
		}
		entry.Info("http")
	}
}
