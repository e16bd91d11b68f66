package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lob-api/internal/service"
)

// unmatchedRoute labels requests gin could not route. Raw URLs would give every scanned path its own series.
const unmatchedRoute = "unmatched"

// Metrics records method, route template, status and latency for each request.
// Requests for the routes listed in skip (health checks, the scrape endpoint) are not observed.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, ok := skipped[route]; ok && route != "" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
