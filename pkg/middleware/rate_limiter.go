package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sohojincome/backend/pkg/models"
	"golang.org/x/time/rate"
)

// RateLimitMessage is returned to clients that exceed their allowance.
const RateLimitMessage = "Too many requests from this IP, please try again later."

// Limiter decides whether a client identified by key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimiter is an in-process token bucket per client key
type RateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows requests per window for each key, with the full
// allowance available as an initial burst.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		r:        rate.Limit(float64(requests) / window.Seconds()),
		b:        requests,
		done:     make(chan struct{}),
	}

	go rl.cleanupVisitors(3 * time.Minute)

	return rl
}

// GetLimiter returns the rate limiter for the given key
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.visitors[key]
	if !exists {
		limiter = rate.NewLimiter(rl.r, rl.b)
		rl.visitors[key] = limiter
	}

	return limiter
}

// Allow implements Limiter
func (rl *RateLimiter) Allow(_ context.Context, key string) bool {
	return rl.GetLimiter(key).Allow()
}

// Stop ends the background cleanup
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// cleanupVisitors drops limiters that have refilled completely
func (rl *RateLimiter) cleanupVisitors(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, limiter := range rl.visitors {
		if limiter.Tokens() >= float64(rl.b) {
			delete(rl.visitors, key)
		}
	}
}

// RateLimit creates an Echo middleware that rejects clients over their
// allowance with 429. onReject, if set, runs for every rejected request.
func RateLimit(l Limiter, onReject func()) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = c.Request().RemoteAddr
			}

			if !l.Allow(c.Request().Context(), ip) {
				if onReject != nil {
					onReject()
				}
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Success: false,
					Error:   RateLimitMessage,
				})
			}

			return next(c)
		}
	}
}
