package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type httpMetrics interface {
	RequestStarted()
	ObserveHTTPRequest(method, route, status string, duration time.Duration)
}

// Metrics records request counts and latency per route template.
func Metrics(m httpMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.RequestStarted()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
