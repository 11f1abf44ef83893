package middleware

import (
	"log/slog"
	"net/http"

	"github.com/richmontato/eznews2/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// Throttle 按客户端 IP 对接口限流，超限返回 429。
//
// Redis 不可用时放行（限流是保护手段，不是正确性前提）。
func Throttle(limiter *ratelimit.RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, waitMs, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			if logger != nil {
				logger.Warn("ratelimit check failed", slog.String("error", err.Error()))
			}
			c.Next()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "retry_after_ms": waitMs})
			c.Abort()
			return
		}
		c.Next()
	}
}
