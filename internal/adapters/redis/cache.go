package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/show-seat-booking/internal/booking"
	"github.com/robertarktes/show-seat-booking/internal/observability"
)

// InventoryCache is a cache-aside decorator over a booking.Inventory. Show
// capacity is immutable for booking purposes, so a TTL is the only
// invalidation. Unknown shows are not cached.
type InventoryCache struct {
	client *redis.Client
	next   booking.Inventory
	ttl    time.Duration
	logger observability.Logger
}

func NewInventoryCache(client *redis.Client, next booking.Inventory, ttl time.Duration, logger observability.Logger) *InventoryCache {
	return &InventoryCache{client: client, next: next, ttl: ttl, logger: logger}
}

func inventoryKey(showID int64) string {
	return "show:seats:" + strconv.FormatInt(showID, 10)
}

func (c *InventoryCache) TotalSeats(ctx context.Context, showID int64) (int, error) {
	key := inventoryKey(showID)
	total, err := c.client.Get(ctx, key).Int()
	if err == nil {
		return total, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Cache trouble must not block bookings; fall through to the source.
		c.logger.WithError(err).WithField("show_id", showID).Warn("inventory cache read failed")
	}

	total, err = c.next.TotalSeats(ctx, showID)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, total, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("show_id", showID).Warn("inventory cache write failed")
	}
	return total, nil
}

var _ booking.Inventory = (*InventoryCache)(nil)
