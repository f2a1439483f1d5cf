package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"farmvet-auth.backend/pkg/logger"
	"farmvet-auth.backend/pkg/metrics"
)

// LoggerMiddleware logs HTTP requests using the structured logger and records request metrics
func LoggerMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequest(c.Request.Method, route, c.Writer.Status(), latency)

		// query strings are not logged; they may carry codes
		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), latency, c.ClientIP())
	}
}
