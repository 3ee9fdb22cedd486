package middleware

import (
	"strconv"
	"time"

	"betportal/internal/metrics"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request through the application logger and
// records the HTTP metrics.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		// unmatched routes share one label to keep cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(duration.Seconds())

		if route == "/health" || route == "/metrics" {
			return
		}
		logger.LogRequest(c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Request.UserAgent(), duration, status)
	}
}

// Recovery turns panics into a 500 envelope and logs them
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithField("panic", recovered).WithField("path", c.Request.URL.Path).Error("Recovered from panic")
		c.AbortWithStatusJSON(500, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "Internal server error"},
		})
	})
}
