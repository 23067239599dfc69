package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
)

type ClientRepository interface {
	Create(ctx context.Context, c domain.Client) error
	Update(ctx context.Context, c domain.Client) error
	Get(ctx context.Context, id uuid.UUID) (domain.Client, error)
	List(ctx context.Context, limit, offset int) ([]domain.Client, error)
}

type CreditRepository interface {
	Create(ctx context.Context, lot domain.CreditLot) error
	Get(ctx context.Context, id uuid.UUID) (domain.CreditLot, error)
	// ListByClient returns every lot of the client. Inside a transaction the
	// rows stay locked until commit.
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.CreditLot, error)
	// Decrement takes one credit. It fails with ErrInsufficientCredit when
	// nothing is left and never drives remaining below zero.
	Decrement(ctx context.Context, lotID uuid.UUID) (domain.CreditLot, error)
	// Restore returns one credit, capped at total, whatever the lot's expiry.
	Restore(ctx context.Context, lotID uuid.UUID) (domain.CreditLot, error)
	// RefreshStatuses recomputes lot status as of today and reports how many changed.
	RefreshStatuses(ctx context.Context, today time.Time) (int64, error)
}

type ReservationRepository interface {
	// Insert fails with ErrConflict when the unit is already taken for the
	// slot and with ErrDuplicateDay when the client already holds a class
	// that day.
	Insert(ctx context.Context, r domain.Reservation) error
	Get(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	ListActiveBySlot(ctx context.Context, slot domain.Slot) ([]domain.Reservation, error)
	ListActiveByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error)
	ListActiveByClient(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]domain.Reservation, error)
	// CancelAndRestore cancels the reservation and restores its credit lot in
	// one step. An already cancelled reservation reports Success=false.
	CancelAndRestore(ctx context.Context, reservationID, lotID uuid.UUID) (domain.CancelOutcome, error)
}

type ScheduleRepository interface {
	// Replace deletes every entry of the client and inserts entries.
	Replace(ctx context.Context, clientID uuid.UUID, entries []domain.FixedScheduleEntry) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.FixedScheduleEntry, error)
}

// Repos bundles the repositories bound to one handle: the pool, or an open
// transaction.
type Repos interface {
	Clients() ClientRepository
	Credits() CreditRepository
	Reservations() ReservationRepository
	Schedules() ScheduleRepository
}
