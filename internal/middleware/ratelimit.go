package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/huntu09/airdropshunter-sub001/internal/ratelimit"
)

// RateLimit admits requests per client IP under the given rule. The scope
// namespaces the limiter key so route groups sharing one Limiter keep
// independent windows per client. Denied requests get a 429 with the window
// metadata in the headers.
func RateLimit(limiter *ratelimit.Limiter, scope string, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := limiter.Check(scope+":"+c.ClientIP(), rule)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		if !res.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"code": "RATE_LIMITED", "message": "too many requests"},
			})
			return
		}
		c.Next()
	}
}
