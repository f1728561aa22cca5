package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sicali-client/pkg/metrics"
)

// Metrics returns middleware that records gateway request durations.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveGatewayRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
