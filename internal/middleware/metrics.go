package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/huntu09/airdropshunter-sub001/internal/metrics"
)

// RequestMetrics feeds every request into the collector: a request count,
// the response time and an error count for 5xx responses.
func RequestMetrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		tags := map[string]string{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}
		collector.Increment("request", tags)
		collector.Timing("response_time", float64(time.Since(start).Milliseconds()), tags)
		if c.Writer.Status() >= 500 {
			collector.Increment("error", tags)
		}
	}
}
