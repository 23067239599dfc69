// Package testutil builds a fully wired booking engine on the in-memory
// store for tests.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/clock"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/repository/memory"
	"github.com/kirinyoku/bedslot/internal/service"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
)

// Studio is three hours behind UTC, so local and UTC dates differ late in
// the evening.
var Studio = time.FixedZone("studio", -3*60*60)

const Timetable = "mon-fri=07:00,09:00,18:00;sat=09:00"

// Now is Monday 2025-03-03 10:00 studio time.
func Now() time.Time {
	return time.Date(2025, time.March, 3, 10, 0, 0, 0, Studio)
}

func Date(m time.Month, d int) time.Time {
	return calendar.Date(2025, m, d)
}

func TOD(s string) domain.TimeOfDay {
	t, err := domain.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Recorder is a publisher that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) OfType(t events.Type) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []events.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type Option func(*service.Deps)

func WithPublisher(p events.Publisher) Option {
	return func(d *service.Deps) { d.Publisher = p }
}

type Fixture struct {
	Store     *memory.Store
	Clock     *clock.FixedClock
	Events    *Recorder
	Timetable calendar.Timetable
	Services  *service.Services
}

// New wires every service on an empty memory store with the clock at Now.
// Random unit picks always take the lowest free unit.
func New(t testing.TB, opts ...Option) *Fixture {
	t.Helper()

	tt, err := calendar.ParseTimetable(Timetable)
	require.NoError(t, err)

	clk := clock.NewFixedClock(Now())
	store := memory.NewStore().WithNow(clk.Now)
	rec := &Recorder{}

	deps := service.Deps{
		Store:     store,
		Latch:     session.NewMemoryLatch(),
		Publisher: rec,
		Timetable: tt,
		Clock:     clk,
		Location:  Studio,
		Logger:    Logger(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	svcs := service.NewServices(deps, service.Config{})
	svcs.Reservation.WithRand(func(int) int { return 0 })

	return &Fixture{
		Store:     store,
		Clock:     clk,
		Events:    rec,
		Timetable: tt,
		Services:  svcs,
	}
}

func (f *Fixture) AddClient(t testing.TB, name string) domain.Client {
	t.Helper()

	c := domain.Client{
		ID:        uuid.New(),
		Name:      name,
		StudioID:  "main",
		Shift:     domain.ShiftMorning,
		CreatedAt: f.Clock.Now().UTC(),
	}
	require.NoError(t, f.Store.Clients().Create(context.Background(), c))

	return c
}

// AddLot sells a lot bought today.
func (f *Fixture) AddLot(t testing.TB, clientID uuid.UUID, credits int, expires time.Time) domain.CreditLot {
	t.Helper()

	lot := domain.CreditLot{
		ID:          uuid.New(),
		ClientID:    clientID,
		Total:       credits,
		Remaining:   credits,
		PurchasedOn: calendar.DateOf(f.Clock.Now(), Studio),
		ExpiresOn:   expires,
		Status:      domain.LotActive,
	}
	require.NoError(t, f.Store.Credits().Create(context.Background(), lot))

	return lot
}

func (f *Fixture) Lot(t testing.TB, id uuid.UUID) domain.CreditLot {
	t.Helper()

	lot, err := f.Store.Credits().Get(context.Background(), id)
	require.NoError(t, err)

	return lot
}

// Book books as the client itself and fails the test on store errors.
func (f *Fixture) Book(t testing.TB, c domain.Client, date time.Time, tod string) reservation.BookResult {
	t.Helper()

	res, err := f.Services.Reservation.Book(context.Background(), ClientSession(c), reservation.BookRequest{
		Date: date,
		Time: TOD(tod),
	})
	require.NoError(t, err)

	return res
}

// Active returns every non-cancelled reservation of the client.
func (f *Fixture) Active(t testing.TB, clientID uuid.UUID) []domain.Reservation {
	t.Helper()

	list, err := f.Store.Reservations().ListActiveByClient(context.Background(), clientID, time.Time{}, time.Time{})
	require.NoError(t, err)

	return list
}

func ClientSession(c domain.Client) session.Session {
	return session.Session{
		ID:       "sess-" + c.ID.String(),
		ClientID: c.ID,
		Role:     domain.RoleClient,
		StudioID: c.StudioID,
		Shift:    c.Shift,
	}
}

func AdminSession() session.Session {
	return session.Session{
		ID:       "sess-admin",
		Role:     domain.RoleAdmin,
		StudioID: "main",
	}
}
