package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eco-report-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes each request under its route template so ids in the
// URL do not explode label cardinality. Paths in skip are not observed.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	ignored := make(map[string]bool, len(skip))
	for _, p := range skip {
		ignored[p] = true
	}
	return func(c *gin.Context) {
		if ignored[c.Request.URL.Path] {
			c.Next()
			return
		}
		began := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(began))
	}
}
