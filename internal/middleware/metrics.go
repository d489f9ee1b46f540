package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/service"
)

const unmatchedPath = "unmatched"

// Metrics returns middleware that captures request metrics using the provided service.
// Requests that match no route share one label.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
