package middleware

import (
	"github.com/erp/tradeledger/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Metrics records request count, duration and in-flight requests. Routes are
// reported by their pattern so path parameters do not explode cardinality.
func Metrics(m *telemetry.HTTPMetrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		done := m.Start(c.Request.Context(), c.Request.Method)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done(route, c.Writer.Status())
	}
}
