package rateLimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCounter struct {
	hits map[string]int64
	err  error
}

func (f *fakeCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.hits[key]++
	return f.hits[key], nil
}

func TestRateLimiter_Allow(t *testing.T) {
	counter := &fakeCounter{hits: map[string]int64{}}
	rl := NewRateLimiter(counter)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(ctx, "user:a", 3, time.Minute))
	}
	assert.False(t, rl.Allow(ctx, "user:a", 3, time.Minute))
	assert.True(t, rl.Allow(ctx, "user:b", 3, time.Minute))
	assert.EqualValues(t, 4, counter.hits["rl:user:a"])
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	rl := NewRateLimiter(&fakeCounter{err: errors.New("redis down")})
	assert.True(t, rl.Allow(context.Background(), "user:a", 1, time.Minute))

	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow(context.Background(), "user:a", 1, time.Minute))
}
