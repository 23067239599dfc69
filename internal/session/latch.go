package session

import (
	"context"
	"sync"
	"time"
)

// Latch answers "is this the first time?" for a key within one session.
// Implementations must not persist flags beyond the session's lifetime.
type Latch interface {
	First(ctx context.Context, s Session, key string) (bool, error)
}

// MemoryLatch keeps flags in process memory until the session expires.
type MemoryLatch struct {
	mu    sync.Mutex
	now   func() time.Time
	flags map[string]time.Time
}

func NewMemoryLatch() *MemoryLatch {
	return &MemoryLatch{now: time.Now, flags: make(map[string]time.Time)}
}

func (l *MemoryLatch) First(_ context.Context, s Session, key string) (bool, error) {
	if s.ID == "" {
		// Without a session identity there is nothing to dedupe against.
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, exp := range l.flags {
		if !exp.IsZero() && now.After(exp) {
			delete(l.flags, k)
		}
	}

	k := s.ID + ":" + key
	if _, seen := l.flags[k]; seen {
		return false, nil
	}
	l.flags[k] = s.ExpiresAt

	return true, nil
}
