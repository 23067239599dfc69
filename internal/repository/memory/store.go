// Package memory is a process-local implementation of the repository
// contracts. It enforces the same uniqueness rules as the relational schema
// and runs transactions against a private copy of the state that replaces
// the live state only on commit.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
)

type state struct {
	clients      map[uuid.UUID]domain.Client
	lots         map[uuid.UUID]domain.CreditLot
	reservations map[uuid.UUID]domain.Reservation
	schedules    map[uuid.UUID][]domain.FixedScheduleEntry
}

func newState() *state {
	return &state{
		clients:      make(map[uuid.UUID]domain.Client),
		lots:         make(map[uuid.UUID]domain.CreditLot),
		reservations: make(map[uuid.UUID]domain.Reservation),
		schedules:    make(map[uuid.UUID][]domain.FixedScheduleEntry),
	}
}

func (s *state) clone() *state {
	return &state{
		clients:      maps.Clone(s.clients),
		lots:         maps.Clone(s.lots),
		reservations: maps.Clone(s.reservations),
		schedules:    maps.Clone(s.schedules),
	}
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithNow replaces the clock used for cancellation timestamps.
func (s *Store) WithNow(now func() time.Time) *Store {
	s.now = now
	return s
}

// RunTx serializes transactions. fn sees a copy of the state; the copy
// becomes the live state only when fn returns nil.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Repos) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, repos{h: handle{st: work, now: s.now}}); err != nil {
		return err
	}

	s.st = work

	return nil
}

func (s *Store) direct() handle {
	return handle{store: s, now: s.now}
}

func (s *Store) Clients() repository.ClientRepository           { return clientRepo{h: s.direct()} }
func (s *Store) Credits() repository.CreditRepository           { return creditRepo{h: s.direct()} }
func (s *Store) Reservations() repository.ReservationRepository { return reservationRepo{h: s.direct()} }
func (s *Store) Schedules() repository.ScheduleRepository       { return scheduleRepo{h: s.direct()} }

// handle points either at the live state behind the store's mutex or at a
// transaction's private copy, which the transaction already owns.
type handle struct {
	store *Store
	st    *state
	now   func() time.Time
}

func (h handle) acquire() (*state, func()) {
	if h.store == nil {
		return h.st, func() {}
	}
	h.store.mu.Lock()
	return h.store.st, h.store.mu.Unlock
}

type repos struct {
	h handle
}

func (r repos) Clients() repository.ClientRepository           { return clientRepo{h: r.h} }
func (r repos) Credits() repository.CreditRepository           { return creditRepo{h: r.h} }
func (r repos) Reservations() repository.ReservationRepository { return reservationRepo{h: r.h} }
func (r repos) Schedules() repository.ScheduleRepository       { return scheduleRepo{h: r.h} }
