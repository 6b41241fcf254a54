package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/ratelimit"
)

// RateLimit counts requests per client IP and answers 429 with message once
// the window's budget is spent. If the limiter itself fails the request is
// let through.
func RateLimit(limiter ratelimit.Limiter, message string, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("ratelimit")
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		resetIn := int(time.Until(res.Reset).Round(time.Second) / time.Second)
		if resetIn < 0 {
			resetIn = 0
		}
		c.Header("RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(resetIn))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(resetIn))
			logger.Info("rate limit exceeded", zap.String("client_ip", c.ClientIP()), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
