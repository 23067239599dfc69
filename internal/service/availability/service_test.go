package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/service/availability"
	"github.com/kirinyoku/bedslot/internal/testutil"
)

func TestFreeUnits(t *testing.T) {
	assert.Equal(t, domain.AllUnits(), availability.FreeUnits(nil))

	occupied := []domain.Reservation{
		{Unit: 2, Status: domain.ReservationConfirmed},
		{Unit: 5, Status: domain.ReservationConfirmed},
		{Unit: 3, Status: domain.ReservationCancelled},
	}
	assert.Equal(t, []domain.UnitID{1, 3, 4, 6}, availability.FreeUnits(occupied))

	var full []domain.Reservation
	for _, u := range domain.AllUnits() {
		full = append(full, domain.Reservation{Unit: u, Status: domain.ReservationConfirmed})
	}
	got := availability.FreeUnits(full)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListFreeUnits(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	avail := f.Services.Availability

	tuesday := testutil.Date(time.March, 4)

	t.Run("open slot starts with every unit", func(t *testing.T) {
		units, err := avail.ListFreeUnits(ctx, tuesday, testutil.TOD("09:00"))
		require.NoError(t, err)
		assert.Equal(t, domain.AllUnits(), units)
	})

	t.Run("booked units are subtracted", func(t *testing.T) {
		for _, name := range []string{"Ana", "Bia"} {
			c := f.AddClient(t, name)
			f.AddLot(t, c.ID, 2, testutil.Date(time.March, 31))
			require.True(t, f.Book(t, c, tuesday, "07:00").OK())
		}

		units, err := avail.ListFreeUnits(ctx, tuesday, testutil.TOD("07:00"))
		require.NoError(t, err)
		assert.Equal(t, []domain.UnitID{3, 4, 5, 6}, units)
	})

	t.Run("started slot is empty", func(t *testing.T) {
		units, err := avail.ListFreeUnits(ctx, testutil.Date(time.March, 3), testutil.TOD("09:00"))
		require.NoError(t, err)
		assert.Empty(t, units)

		units, err = avail.ListFreeUnits(ctx, testutil.Date(time.March, 3), testutil.TOD("18:00"))
		require.NoError(t, err)
		assert.Len(t, units, domain.UnitCount)
	})

	t.Run("past date is empty", func(t *testing.T) {
		units, err := avail.ListFreeUnits(ctx, testutil.Date(time.February, 28), testutil.TOD("18:00"))
		require.NoError(t, err)
		assert.Empty(t, units)
	})

	t.Run("time not on the timetable is empty", func(t *testing.T) {
		units, err := avail.ListFreeUnits(ctx, tuesday, testutil.TOD("10:30"))
		require.NoError(t, err)
		assert.Empty(t, units)

		units, err = avail.ListFreeUnits(ctx, testutil.Date(time.March, 9), testutil.TOD("09:00"))
		require.NoError(t, err)
		assert.Empty(t, units, "no classes on sunday")
	})
}

func TestDaySlots(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)

	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 2, testutil.Date(time.March, 31))
	require.True(t, f.Book(t, c, testutil.Date(time.March, 3), "18:00").OK())

	slots, err := f.Services.Availability.DaySlots(ctx, testutil.Date(time.March, 3))
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, testutil.TOD("07:00"), slots[0].Time)
	assert.True(t, slots[0].Started)
	assert.Empty(t, slots[0].Free)

	assert.True(t, slots[1].Started)

	assert.Equal(t, testutil.TOD("18:00"), slots[2].Time)
	assert.False(t, slots[2].Started)
	assert.Equal(t, []domain.UnitID{2, 3, 4, 5, 6}, slots[2].Free)

	sunday, err := f.Services.Availability.DaySlots(ctx, testutil.Date(time.March, 9))
	require.NoError(t, err)
	assert.Empty(t, sunday)
}

func TestStarted(t *testing.T) {
	f := testutil.New(t)
	avail := f.Services.Availability

	today := testutil.Date(time.March, 3)
	assert.True(t, avail.Started(today, testutil.TOD("10:00")), "a slot starting now has started")
	assert.False(t, avail.Started(today, testutil.TOD("10:01")))

	// 22:00 studio time is already the next day in UTC.
	f.Clock.Set(time.Date(2025, time.March, 3, 22, 0, 0, 0, testutil.Studio))
	assert.False(t, avail.Started(testutil.Date(time.March, 4), testutil.TOD("07:00")))
}
