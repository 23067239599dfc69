package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/bedslot/internal/session"
)

// SessionLatch keeps once-per-session flags in redis. Each flag expires with
// its session so nothing outlives the login.
type SessionLatch struct {
	rdb        *redis.Client
	defaultTTL time.Duration
	now        func() time.Time
}

func NewSessionLatch(rdb *redis.Client, defaultTTL time.Duration) *SessionLatch {
	if defaultTTL <= 0 {
		defaultTTL = 12 * time.Hour
	}
	return &SessionLatch{rdb: rdb, defaultTTL: defaultTTL, now: time.Now}
}

func (l *SessionLatch) First(ctx context.Context, s session.Session, key string) (bool, error) {
	if s.ID == "" {
		return true, nil
	}

	ttl := l.defaultTTL
	if !s.ExpiresAt.IsZero() {
		if left := s.ExpiresAt.Sub(l.now()); left > 0 {
			ttl = left
		}
	}

	return l.rdb.SetNX(ctx, KeySessionFlag(s.ID, key), 1, ttl).Result()
}
