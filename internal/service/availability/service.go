// Package availability answers which beds are still free for a slot.
package availability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/clock"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
	redisrepo "github.com/kirinyoku/bedslot/internal/repository/redis"
)

// FreeUnits subtracts the units held by active reservations from {1..6}.
// The result is ascending.
func FreeUnits(occupied []domain.Reservation) []domain.UnitID {
	taken := make(map[domain.UnitID]bool, len(occupied))
	for _, r := range occupied {
		if r.Active() {
			taken[r.Unit] = true
		}
	}

	free := make([]domain.UnitID, 0, domain.UnitCount)
	for _, u := range domain.AllUnits() {
		if !taken[u] {
			free = append(free, u)
		}
	}

	return free
}

type Config struct {
	SlotTTL time.Duration
	DayTTL  time.Duration
}

type Service struct {
	repos     repository.Repos
	cache     *redisrepo.SlotCache
	timetable calendar.Timetable
	clock     clock.Clock
	loc       *time.Location
	log       *slog.Logger
	cfg       Config
}

// New builds the checker. cache may be nil, in which case every call reads
// the store.
func New(
	repos repository.Repos,
	cache *redisrepo.SlotCache,
	timetable calendar.Timetable,
	clk clock.Clock,
	loc *time.Location,
	log *slog.Logger,
	cfg Config,
) *Service {
	if cfg.SlotTTL <= 0 {
		cfg.SlotTTL = 10 * time.Second
	}
	if cfg.DayTTL <= 0 {
		cfg.DayTTL = 15 * time.Second
	}

	return &Service{
		repos:     repos,
		cache:     cache,
		timetable: timetable,
		clock:     clk,
		loc:       loc,
		log:       log,
		cfg:       cfg,
	}
}

// Started reports whether the slot has already begun.
func (s *Service) Started(date time.Time, tod domain.TimeOfDay) bool {
	return !calendar.SlotStart(date, tod, s.loc).After(s.clock.Now())
}

// ListFreeUnits returns the free units of a slot. Slots that already began
// or that the timetable does not offer have no free units.
func (s *Service) ListFreeUnits(ctx context.Context, date time.Time, tod domain.TimeOfDay) ([]domain.UnitID, error) {
	const op = "service.availability.ListFreeUnits"

	if s.Started(date, tod) || !s.timetable.Offers(date, tod) {
		return []domain.UnitID{}, nil
	}

	slot := domain.Slot{Date: date, Time: tod}
	load := func(ctx context.Context) ([]domain.UnitID, error) {
		occupied, err := s.repos.Reservations().ListActiveBySlot(ctx, slot)
		if err != nil {
			return nil, err
		}
		return FreeUnits(occupied), nil
	}

	var (
		free []domain.UnitID
		err  error
	)
	if s.cache == nil {
		free, err = load(ctx)
	} else {
		free, err = redisrepo.Load(ctx, s.cache, redisrepo.KeySlotFreeUnits(date, tod), s.cfg.SlotTTL, load)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return free, nil
}

// SlotAvailability is one offered time of a day with its free units.
type SlotAvailability struct {
	Time    domain.TimeOfDay `json:"time"`
	Free    []domain.UnitID  `json:"free"`
	Started bool             `json:"started"`
}

// DaySlots lists every offered slot of date with its free units.
func (s *Service) DaySlots(ctx context.Context, date time.Time) ([]SlotAvailability, error) {
	const op = "service.availability.DaySlots"

	load := func(ctx context.Context) ([]SlotAvailability, error) {
		occupied, err := s.repos.Reservations().ListActiveByDate(ctx, date)
		if err != nil {
			return nil, err
		}

		byTime := make(map[domain.TimeOfDay][]domain.Reservation)
		for _, r := range occupied {
			byTime[r.Time] = append(byTime[r.Time], r)
		}

		times := s.timetable.SlotsOn(date)
		out := make([]SlotAvailability, 0, len(times))
		for _, tod := range times {
			out = append(out, SlotAvailability{Time: tod, Free: FreeUnits(byTime[tod])})
		}
		return out, nil
	}

	var (
		slots []SlotAvailability
		err   error
	)
	if s.cache == nil {
		slots, err = load(ctx)
	} else {
		slots, err = redisrepo.Load(ctx, s.cache, redisrepo.KeyDaySlots(date), s.cfg.DayTTL, load)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	// Started is evaluated per call so a cached day never shows a past slot as open.
	slots = slices.Clone(slots)
	for i := range slots {
		if s.Started(date, slots[i].Time) {
			slots[i].Started = true
			slots[i].Free = []domain.UnitID{}
		}
	}

	return slots, nil
}

// Invalidate drops cached views of the slot. Errors are logged only.
func (s *Service) Invalidate(ctx context.Context, slot domain.Slot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSlot(ctx, slot); err != nil {
		s.log.WarnContext(ctx, "availability cache invalidation failed", "error", err)
	}
}
