// Package middleware provides the HTTP middleware chain of the storefront API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/grocer/backend/internal/infrastructure/telemetry"
)

// HTTPMetrics records request count, latency and response size for the
// Prometheus registry behind /metrics. A nil metrics set disables it.
// Routes are labelled by their pattern, not the raw path, to keep
// cardinality bounded.
func HTTPMetrics(metrics *telemetry.HTTPMetrics, skip ...string) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		done := metrics.Begin()
		c.Next()
		done(c.Request.Method, c.FullPath(), c.Writer.Status(), c.Writer.Size())
	}
}
