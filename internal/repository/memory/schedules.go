package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
)

type scheduleRepo struct {
	h handle
}

func (r scheduleRepo) Replace(_ context.Context, clientID uuid.UUID, entries []domain.FixedScheduleEntry) error {
	st, release := r.h.acquire()
	defer release()

	if _, ok := st.clients[clientID]; !ok {
		return repository.ErrNotFound
	}

	next := make([]domain.FixedScheduleEntry, 0, len(entries))
	for _, e := range entries {
		e.ClientID = clientID
		if slices.Contains(next, e) {
			return repository.ErrConflict
		}
		next = append(next, e)
	}

	if len(next) == 0 {
		delete(st.schedules, clientID)
		return nil
	}
	st.schedules[clientID] = next

	return nil
}

func (r scheduleRepo) ListByClient(_ context.Context, clientID uuid.UUID) ([]domain.FixedScheduleEntry, error) {
	st, release := r.h.acquire()
	defer release()

	out := slices.Clone(st.schedules[clientID])
	slices.SortFunc(out, func(a, b domain.FixedScheduleEntry) int {
		if a.Weekday != b.Weekday {
			return int(a.Weekday) - int(b.Weekday)
		}
		return a.Time.Minutes() - b.Time.Minutes()
	})

	return out, nil
}
