package middleware

import (
	"strconv"

	"cropcare/pkg/logger"
	"cropcare/pkg/metrics"
	"cropcare/pkg/ratelimit"
	"cropcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateLimit 按客户端IP限流，用于公开的邀请码接口
// 存储不可用时放行请求并记录日志
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		result, err := limiter.Allow(c.Request.Context(), c.FullPath()+"|"+c.ClientIP())
		if err != nil {
			logger.GetLogger().WithError(err).WithField("client_ip", c.ClientIP()).Warn("限流存储不可用，放行请求")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		if !result.Allowed {
			metrics.RateLimitedTotal.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
