package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/kirinyoku/bedslot/internal/domain"
)

// SlotCache keeps short-lived availability views. Concurrent misses on one
// key share a single store read. When redis misbehaves the views are served
// straight from the loader.
type SlotCache struct {
	rdb   *redis.Client
	log   *slog.Logger
	group singleflight.Group
}

func NewSlotCache(rdb *redis.Client, log *slog.Logger) *SlotCache {
	return &SlotCache{rdb: rdb, log: log}
}

// Load returns the view cached at key, or computes it with load and keeps it
// for ttl.
func Load[T any](
	ctx context.Context,
	c *SlotCache,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok := lookup[T](ctx, c, key); ok {
		return v, nil
	}

	shared, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := lookup[T](ctx, c, key); ok {
			return v, nil
		}

		v, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if err := store(ctx, c, key, v, ttl); err != nil {
			c.log.WarnContext(ctx, "slot cache write failed", "key", key, "error", err)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := shared.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("slot cache: %s holds %T", key, shared)
	}

	return v, nil
}

// lookup reports a miss for absent, unreadable and undecodable entries alike.
func lookup[T any](ctx context.Context, c *SlotCache, key string) (T, bool) {
	var v T

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "slot cache read failed", "key", key, "error", err)
		}
		return v, false
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		c.log.WarnContext(ctx, "slot cache entry dropped", "key", key, "error", err)
		_ = c.rdb.Unlink(ctx, key).Err()
		return v, false
	}

	return v, true
}

func store(ctx context.Context, c *SlotCache, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// InvalidateSlot drops the slot's free-unit view and the day listing it
// appears in.
func (c *SlotCache) InvalidateSlot(ctx context.Context, slot domain.Slot) error {
	return c.rdb.Unlink(ctx,
		KeySlotFreeUnits(slot.Date, slot.Time),
		KeyDaySlots(slot.Date),
	).Err()
}
