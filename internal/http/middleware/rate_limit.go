package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
)

// RateLimit throttles a route group per caller. Signed-in users are keyed by
// id, everyone else by client IP.
func RateLimit(scope string, limiter *cache.RateLimiter, m *observability.Metrics) gin.HandlerFunc {
	if limiter == nil || limiter.Limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := scope + ":ip:" + c.ClientIP()
		if uid := ctxutil.UserID(c.Request.Context()); uid != uuid.Nil {
			key = scope + ":user:" + uid.String()
		}
		if !limiter.Allow(c.Request.Context(), key) {
			m.IncRateLimited()
			c.Header("Retry-After", retryAfter(limiter))
			response.AbortError(c, http.StatusTooManyRequests, "rate_limited", errRateLimited)
			return
		}
		c.Next()
	}
}

func retryAfter(l *cache.RateLimiter) string {
	secs := int(l.Window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
