package recurring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/service/recurring"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
	"github.com/kirinyoku/bedslot/internal/testutil"
)

func mar(d int) time.Time { return testutil.Date(time.March, d) }

func TestExpand(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		weekday time.Weekday
		end     time.Time
		want    []time.Time
	}{
		{
			name:  "start on the weekday, horizon inclusive",
			start: mar(3), weekday: time.Monday, end: mar(31),
			want: []time.Time{mar(3), mar(10), mar(17), mar(24), mar(31)},
		},
		{
			name:  "start mid-week",
			start: mar(5), weekday: time.Monday, end: mar(31),
			want: []time.Time{mar(10), mar(17), mar(24), mar(31)},
		},
		{
			name:  "crosses a month",
			start: mar(26), weekday: time.Thursday, end: testutil.Date(time.April, 10),
			want: []time.Time{mar(27), testutil.Date(time.April, 3), testutil.Date(time.April, 10)},
		},
		{
			name:  "horizon before the first match",
			start: mar(28), weekday: time.Monday, end: mar(30),
		},
		{
			name:  "horizon before start",
			start: mar(10), weekday: time.Monday, end: mar(3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recurring.Expand(tt.start, tt.weekday, tt.end)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("restartable", func(t *testing.T) {
		a := recurring.Expand(mar(1), time.Friday, mar(31))
		b := recurring.Expand(mar(1), time.Friday, mar(31))
		assert.Equal(t, a, b)
		assert.Equal(t, mar(31), calendar.EndOfMonth(mar(1)))
	})
}

func TestRestOfMonth(t *testing.T) {
	f := testutil.New(t)
	rec := f.Services.Recurring

	assert.Equal(t, []time.Time{mar(10), mar(17), mar(24), mar(31)}, rec.RestOfMonth(time.Monday, testutil.TOD("09:00")),
		"today's 09:00 class already started")
	assert.Equal(t, []time.Time{mar(3), mar(10), mar(17), mar(24), mar(31)}, rec.RestOfMonth(time.Monday, testutil.TOD("18:00")))
	assert.Equal(t, []time.Time{mar(8), mar(15), mar(22), mar(29)}, rec.RestOfMonth(time.Saturday, testutil.TOD("09:00")))
}

func TestBookSeriesGate(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	lot := f.AddLot(t, c.ID, 2, mar(31))

	req := recurring.SeriesRequest{
		Dates: f.Services.Recurring.RestOfMonth(time.Monday, testutil.TOD("09:00")),
		Time:  testutil.TOD("09:00"),
	}
	require.Len(t, req.Dates, 4)

	res, err := f.Services.Recurring.BookSeries(ctx, testutil.ClientSession(c), req)
	require.NoError(t, err)
	assert.True(t, res.NeedsConfirmation)
	assert.Equal(t, recurring.Plan{Requested: 4, MaxBookable: 2, Credits: 2}, res.Plan)
	assert.Empty(t, res.Outcomes)
	assert.Empty(t, f.Active(t, c.ID), "nothing is booked before confirmation")
	assert.Equal(t, 2, f.Lot(t, lot.ID).Remaining)

	req.AcceptReduced = true
	res, err = f.Services.Recurring.BookSeries(ctx, testutil.ClientSession(c), req)
	require.NoError(t, err)
	assert.False(t, res.NeedsConfirmation)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Outcomes, 4)
	for i, o := range res.Outcomes {
		assert.Equal(t, req.Dates[i], o.Date)
		if i < 2 {
			assert.True(t, o.OK())
			assert.NotEqual(t, uuid.Nil, o.ReservationID)
			continue
		}
		assert.Equal(t, reservation.NoCreditAvailable, o.Reason)
	}
	assert.Equal(t, 0, f.Lot(t, lot.ID).Remaining)
}

func TestBookSeriesWithinCredits(t *testing.T) {
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 10, mar(31))

	dates := f.Services.Recurring.RestOfMonth(time.Wednesday, testutil.TOD("07:00"))
	res, err := f.Services.Recurring.BookSeries(context.Background(), testutil.ClientSession(c), recurring.SeriesRequest{
		Dates: dates,
		Time:  testutil.TOD("07:00"),
	})
	require.NoError(t, err)

	assert.False(t, res.Plan.Reduced())
	assert.Equal(t, len(dates), res.Succeeded)
	assert.Zero(t, res.Failed)
}

func TestBookSeriesStickyUnit(t *testing.T) {
	ctx := context.Background()

	t.Run("preferred unit kept, lowest free when taken", func(t *testing.T) {
		f := testutil.New(t)
		c := f.AddClient(t, "Ana")
		f.AddLot(t, c.ID, 10, mar(31))

		// Someone else holds unit 4 on the second date.
		blocker := f.AddClient(t, "Bia")
		f.AddLot(t, blocker.ID, 10, mar(31))
		_, err := f.Services.Reservation.Book(ctx, testutil.ClientSession(blocker), reservation.BookRequest{
			Date: mar(11), Time: testutil.TOD("18:00"), Policy: reservation.StickyUnit, PreferredUnit: 4,
		})
		require.NoError(t, err)

		res, err := f.Services.Recurring.BookSeries(ctx, testutil.ClientSession(c), recurring.SeriesRequest{
			Dates:         []time.Time{mar(4), mar(11), mar(18)},
			Time:          testutil.TOD("18:00"),
			PreferredUnit: 4,
		})
		require.NoError(t, err)
		require.Equal(t, 3, res.Succeeded)

		units := []domain.UnitID{res.Outcomes[0].Unit, res.Outcomes[1].Unit, res.Outcomes[2].Unit}
		assert.Equal(t, []domain.UnitID{4, 1, 4}, units)
	})

	t.Run("first unit won becomes the preference", func(t *testing.T) {
		f := testutil.New(t)
		c := f.AddClient(t, "Ana")
		f.AddLot(t, c.ID, 10, mar(31))

		// Unit 1 is taken on the first date, so the series settles on 2.
		blocker := f.AddClient(t, "Bia")
		f.AddLot(t, blocker.ID, 10, mar(31))
		require.True(t, f.Book(t, blocker, mar(4), "18:00").OK())

		res, err := f.Services.Recurring.BookSeries(ctx, testutil.ClientSession(c), recurring.SeriesRequest{
			Dates: []time.Time{mar(4), mar(11), mar(18)},
			Time:  testutil.TOD("18:00"),
		})
		require.NoError(t, err)

		for _, o := range res.Outcomes {
			assert.Equal(t, domain.UnitID(2), o.Unit, o.Date)
		}
	})
}

func TestBookSeriesKeepsGoingAfterFailures(t *testing.T) {
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 10, mar(31))

	// Already booked on the 11th at another time.
	require.True(t, f.Book(t, c, mar(11), "07:00").OK())

	res, err := f.Services.Recurring.BookSeries(context.Background(), testutil.ClientSession(c), recurring.SeriesRequest{
		Dates: []time.Time{mar(4), mar(11), mar(18)},
		Time:  testutil.TOD("18:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, reservation.DuplicateDayBooking, res.Outcomes[1].Reason)
	assert.True(t, res.Outcomes[2].OK())
}

func TestBookSeriesForbidden(t *testing.T) {
	f := testutil.New(t)
	ana := f.AddClient(t, "Ana")
	bia := f.AddClient(t, "Bia")

	_, err := f.Services.Recurring.BookSeries(context.Background(), testutil.ClientSession(bia), recurring.SeriesRequest{
		ClientID: ana.ID,
		Dates:    []time.Time{mar(4)},
		Time:     testutil.TOD("18:00"),
	})
	assert.ErrorIs(t, err, session.ErrForbidden)
}

type scriptedBooker struct {
	calls int
	fn    func(call int, req reservation.BookRequest) (reservation.BookResult, error)
}

func (b *scriptedBooker) Book(_ context.Context, _ session.Session, req reservation.BookRequest) (reservation.BookResult, error) {
	b.calls++
	return b.fn(b.calls, req)
}

func booked(req reservation.BookRequest) reservation.BookResult {
	return reservation.BookResult{Reservation: domain.Reservation{
		ID:   uuid.New(),
		Date: req.Date,
		Time: req.Time,
		Unit: max(req.PreferredUnit, 3),
	}}
}

func TestBookSeriesStoreFailure(t *testing.T) {
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 10, mar(31))

	var prefs []domain.UnitID
	booker := &scriptedBooker{fn: func(call int, req reservation.BookRequest) (reservation.BookResult, error) {
		prefs = append(prefs, req.PreferredUnit)
		assert.Equal(t, reservation.StickyUnit, req.Policy)
		assert.Equal(t, c.ID, req.ClientID)
		if call == 2 {
			return reservation.BookResult{}, errors.New("connection reset")
		}
		return booked(req), nil
	}}

	svc := recurring.New(f.Store, booker, f.Clock, testutil.Studio, testutil.Logger())
	res, err := svc.BookSeries(context.Background(), testutil.ClientSession(c), recurring.SeriesRequest{
		Dates: []time.Time{mar(4), mar(11), mar(18)},
		Time:  testutil.TOD("18:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, reservation.Unavailable, res.Outcomes[1].Reason)
	assert.Equal(t, []domain.UnitID{0, 3, 3}, prefs)
}

func TestBookSeriesStopsOnCancel(t *testing.T) {
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 10, mar(31))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	booker := &scriptedBooker{fn: func(_ int, req reservation.BookRequest) (reservation.BookResult, error) {
		cancel()
		return booked(req), nil
	}}

	svc := recurring.New(f.Store, booker, f.Clock, testutil.Studio, testutil.Logger())
	res, err := svc.BookSeries(ctx, testutil.ClientSession(c), recurring.SeriesRequest{
		Dates: []time.Time{mar(4), mar(11), mar(18)},
		Time:  testutil.TOD("18:00"),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, booker.calls)
	assert.Len(t, res.Outcomes, 1)
	assert.Equal(t, 1, res.Succeeded)
}

func TestBookSeriesPropagatesBookerCancellation(t *testing.T) {
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 10, mar(31))

	booker := &scriptedBooker{fn: func(int, reservation.BookRequest) (reservation.BookResult, error) {
		return reservation.BookResult{}, context.DeadlineExceeded
	}}

	svc := recurring.New(f.Store, booker, f.Clock, testutil.Studio, testutil.Logger())
	_, err := svc.BookSeries(context.Background(), testutil.ClientSession(c), recurring.SeriesRequest{
		Dates: []time.Time{mar(4), mar(11)},
		Time:  testutil.TOD("18:00"),
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, booker.calls)
}
