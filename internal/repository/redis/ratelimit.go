package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// luaAdmit trims hits older than the window and records a new one only when
// it fits. Rejected hits are not recorded, so a throttled caller is free again
// once its oldest admitted hit ages out.
//
// KEYS[1] sorted set of admitted hits, scored by unix ms
// ARGV[1] now, ms
// ARGV[2] window, ms
// ARGV[3] limit
// ARGV[4] member
//
// Returns {admitted, hits in window, retry after ms}.
const luaAdmit = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local hits = redis.call('ZCARD', KEYS[1])

if hits >= limit then
  local wait = window
  local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
  if oldest[2] then
    wait = tonumber(oldest[2]) + window - now
  end
  if wait < 0 then wait = 0 end
  return {0, hits, wait}
end

redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return {1, hits + 1, 0}
`

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Current    int64
	RetryAfter time.Duration
}

// WriteLimiter caps booking writes per caller over a rolling window.
type WriteLimiter struct {
	rdb    *redis.Client
	script *redis.Script
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewWriteLimiter(rdb *redis.Client, limit int, window time.Duration) *WriteLimiter {
	return &WriteLimiter{
		rdb:    rdb,
		script: redis.NewScript(luaAdmit),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow admits one write for caller when the window has room.
func (l *WriteLimiter) Allow(ctx context.Context, caller string) (Decision, error) {
	const op = "redis.WriteLimiter.Allow"

	out, err := l.script.Run(ctx, l.rdb,
		[]string{KeyRateLimit("write", caller)},
		l.now().UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%s:%w", op, err)
	}
	if len(out) != 3 {
		return Decision{}, fmt.Errorf("%s: unexpected script reply %v", op, out)
	}

	return Decision{
		Allowed:    out[0] == 1,
		Current:    out[1],
		RetryAfter: time.Duration(out[2]) * time.Millisecond,
	}, nil
}
