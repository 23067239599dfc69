package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
)

type creditRepo struct {
	h handle
}

func (r creditRepo) Create(_ context.Context, lot domain.CreditLot) error {
	st, release := r.h.acquire()
	defer release()

	if _, exists := st.lots[lot.ID]; exists {
		return repository.ErrConflict
	}
	if _, ok := st.clients[lot.ClientID]; !ok {
		return repository.ErrNotFound
	}

	st.lots[lot.ID] = lot

	return nil
}

func (r creditRepo) Get(_ context.Context, id uuid.UUID) (domain.CreditLot, error) {
	st, release := r.h.acquire()
	defer release()

	lot, ok := st.lots[id]
	if !ok {
		return domain.CreditLot{}, repository.ErrNotFound
	}

	return lot, nil
}

func (r creditRepo) ListByClient(_ context.Context, clientID uuid.UUID) ([]domain.CreditLot, error) {
	st, release := r.h.acquire()
	defer release()

	var out []domain.CreditLot
	for _, lot := range st.lots {
		if lot.ClientID == clientID {
			out = append(out, lot)
		}
	}

	slices.SortFunc(out, func(a, b domain.CreditLot) int {
		return a.PurchasedOn.Compare(b.PurchasedOn)
	})

	return out, nil
}

func (r creditRepo) Decrement(_ context.Context, lotID uuid.UUID) (domain.CreditLot, error) {
	st, release := r.h.acquire()
	defer release()

	lot, ok := st.lots[lotID]
	if !ok {
		return domain.CreditLot{}, repository.ErrNotFound
	}
	if lot.Remaining <= 0 {
		return domain.CreditLot{}, repository.ErrInsufficientCredit
	}

	lot.Remaining--
	if lot.Remaining == 0 {
		lot.Status = domain.LotExhausted
	}
	st.lots[lotID] = lot

	return lot, nil
}

func (r creditRepo) Restore(_ context.Context, lotID uuid.UUID) (domain.CreditLot, error) {
	st, release := r.h.acquire()
	defer release()

	lot, err := restoreLot(st, lotID)
	if err != nil {
		return domain.CreditLot{}, err
	}

	return lot, nil
}

func restoreLot(st *state, lotID uuid.UUID) (domain.CreditLot, error) {
	lot, ok := st.lots[lotID]
	if !ok {
		return domain.CreditLot{}, repository.ErrNotFound
	}

	lot.Remaining = min(lot.Remaining+1, lot.Total)
	if lot.Status == domain.LotExhausted && lot.Remaining > 0 {
		lot.Status = domain.LotActive
	}
	st.lots[lotID] = lot

	return lot, nil
}

func (r creditRepo) RefreshStatuses(_ context.Context, today time.Time) (int64, error) {
	st, release := r.h.acquire()
	defer release()

	var changed int64
	for id, lot := range st.lots {
		next := lot.StatusOn(today)
		if next != lot.Status {
			lot.Status = next
			st.lots[id] = lot
			changed++
		}
	}

	return changed, nil
}
