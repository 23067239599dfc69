package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
)

type reservationRepo struct {
	h handle
}

func (r reservationRepo) Insert(_ context.Context, res domain.Reservation) error {
	st, release := r.h.acquire()
	defer release()

	if _, exists := st.reservations[res.ID]; exists {
		return repository.ErrConflict
	}
	if _, ok := st.clients[res.ClientID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := st.lots[res.LotID]; !ok {
		return repository.ErrNotFound
	}

	if res.Active() {
		for _, other := range st.reservations {
			if !other.Active() || !other.Date.Equal(res.Date) {
				continue
			}
			if other.Time == res.Time && other.Unit == res.Unit {
				return repository.ErrConflict
			}
			if other.ClientID == res.ClientID {
				return repository.ErrDuplicateDay
			}
		}
	}

	st.reservations[res.ID] = res

	return nil
}

func (r reservationRepo) Get(_ context.Context, id uuid.UUID) (domain.Reservation, error) {
	st, release := r.h.acquire()
	defer release()

	res, ok := st.reservations[id]
	if !ok {
		return domain.Reservation{}, repository.ErrNotFound
	}

	return res, nil
}

func (r reservationRepo) ListActiveBySlot(_ context.Context, slot domain.Slot) ([]domain.Reservation, error) {
	return r.filter(func(res domain.Reservation) bool {
		return res.Date.Equal(slot.Date) && res.Time == slot.Time
	}), nil
}

func (r reservationRepo) ListActiveByDate(_ context.Context, date time.Time) ([]domain.Reservation, error) {
	return r.filter(func(res domain.Reservation) bool {
		return res.Date.Equal(date)
	}), nil
}

func (r reservationRepo) ListActiveByClient(
	_ context.Context,
	clientID uuid.UUID,
	from, to time.Time,
) ([]domain.Reservation, error) {
	return r.filter(func(res domain.Reservation) bool {
		if res.ClientID != clientID || res.Date.Before(from) {
			return false
		}
		return to.IsZero() || !res.Date.After(to)
	}), nil
}

func (r reservationRepo) CancelAndRestore(
	_ context.Context,
	reservationID, lotID uuid.UUID,
) (domain.CancelOutcome, error) {
	st, release := r.h.acquire()
	defer release()

	res, ok := st.reservations[reservationID]
	switch {
	case !ok:
		return domain.CancelOutcome{Message: domain.CancelMsgNotFound}, nil
	case !res.Active():
		return domain.CancelOutcome{Message: domain.CancelMsgAlreadyCancelled}, nil
	case res.LotID != lotID:
		return domain.CancelOutcome{Message: domain.CancelMsgLotMismatch}, nil
	}

	if _, err := restoreLot(st, lotID); err != nil {
		return domain.CancelOutcome{}, err
	}

	at := r.h.now()
	res.Status = domain.ReservationCancelled
	res.CancelledAt = &at
	st.reservations[reservationID] = res

	return domain.CancelOutcome{Success: true, Message: domain.CancelMsgCancelled}, nil
}

func (r reservationRepo) filter(keep func(domain.Reservation) bool) []domain.Reservation {
	st, release := r.h.acquire()
	defer release()

	var out []domain.Reservation
	for _, res := range st.reservations {
		if res.Active() && keep(res) {
			out = append(out, res)
		}
	}

	slices.SortFunc(out, func(a, b domain.Reservation) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := a.Time.Minutes() - b.Time.Minutes(); c != 0 {
			return c
		}
		return int(a.Unit) - int(b.Unit)
	})

	return out
}
