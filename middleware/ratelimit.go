package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/patient-checkin/config"
	"github.com/ariebrainware/patient-checkin/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// Rate limiting defaults
	defaultRateLimit  = 30          // 30 requests
	defaultRateWindow = time.Minute // per minute
)

var errRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter creates a rate limiting middleware keyed by path and client
// IP. Without Redis every request is allowed.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path
		key := rateLimitKey(clientIP, endpoint)

		allowed, err := checkRateLimit(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			// Fail open: a Redis outage must not stop check-ins.
			util.LogCheckInEvent(util.CheckInEvent{
				EventType: util.EventRateLimitUnavailable,
				IP:        clientIP,
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			c.Next()
			return
		}

		if !allowed {
			util.LogRateLimitExceeded(clientIP, endpoint)
			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: errRateLimited,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(clientIP, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
}

// checkRateLimit checks if a request is within rate limits
// Returns true if allowed, false if rate limit exceeded
func checkRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return true, nil
	}

	// SET NX EX opens the window with its TTL; INCR keeps that TTL.
	pipe := rdb.Pipeline()
	pipe.SetNX(ctx, key, 0, window)
	incrCmd := pipe.Incr(ctx, key)

	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return incrCmd.Val() <= int64(limit), nil
}

// ResetRateLimit resets the rate limit for a given client and endpoint.
func ResetRateLimit(ctx context.Context, clientIP, endpoint string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return fmt.Errorf("redis not available")
	}
	return rdb.Del(ctx, rateLimitKey(clientIP, endpoint)).Err()
}
