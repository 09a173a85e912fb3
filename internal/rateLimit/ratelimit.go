package rateLimit

import (
	"context"
	"time"
)

type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RateLimiter struct {
	counter Counter
}

func NewRateLimiter(counter Counter) *RateLimiter {
	return &RateLimiter{counter: counter}
}

// Allow counts one hit for key in the current window. Counter failures let
// the request through.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	if rl == nil || rl.counter == nil {
		return true
	}
	n, err := rl.counter.Incr(ctx, "rl:"+key, period)
	if err != nil {
		return true
	}
	return n <= int64(rate)
}
