package middleware

import (
	"context"
	"time"

	"github.com/sohojincome/backend/pkg/cache"
	"github.com/sohojincome/backend/pkg/logger"
)

// RedisRateLimiter is a fixed-window limiter shared by every API instance
type RedisRateLimiter struct {
	client *cache.Client
	limit  int64
	window time.Duration
	prefix string
	log    logger.Logger
}

// NewRedisRateLimiter allows limit requests per window for each key
func NewRedisRateLimiter(client *cache.Client, limit int, window time.Duration, log logger.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit:",
		log:    log,
	}
}

// Allow implements Limiter. Redis failures let the request through.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	count, _, err := rl.client.IncrWindow(ctx, rl.prefix+key, rl.window)
	if err != nil {
		rl.log.Warn("rate limiter unavailable, allowing request", "key", key, "error", err)
		return true
	}
	return count <= rl.limit
}
