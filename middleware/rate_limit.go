package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"pushtrack/utils"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Redis     *redis.Client
	Requests  int
	Window    time.Duration
	KeyPrefix string
	SkipPaths []string
}

// RateLimiter throttles callers per client IP using a sliding window
// log over Redis sorted sets. When Redis is unavailable the request is
// allowed through rather than failing closed.
type RateLimiter struct {
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit"
	}
	return &RateLimiter{config: config}
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	skip := make(map[string]struct{}, len(rl.config.SkipPaths))
	for _, path := range rl.config.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:ip:%s", rl.config.KeyPrefix, c.ClientIP())

		allowed, remaining, resetTime, err := rl.checkRateLimit(c.Request.Context(), key)
		if err != nil {
			logrus.Errorf("Rate limit check failed: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			utils.TooManyRequestsResponse(c, "Rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimit runs the sliding window log algorithm: expire old
// entries, count the rest, record this request.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string) (allowed bool, remaining int, resetTime time.Time, err error) {
	now := time.Now()
	window := rl.config.Window

	pipe := rl.config.Redis.Pipeline()

	expiredBefore := now.Add(-window).UnixNano()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", expiredBefore))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, key, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(countCmd.Val())
	resetTime = now.Add(window)

	if count >= rl.config.Requests {
		return false, 0, resetTime, nil
	}
	return true, rl.config.Requests - count - 1, resetTime, nil
}
