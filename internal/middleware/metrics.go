package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduvault/eduvault-api/internal/service"
)

// Metrics records one HTTP observation per request. The route template
// (c.FullPath) is used as the path label so ids do not explode cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
