package admin_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/service/admin"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
	"github.com/kirinyoku/bedslot/internal/testutil"
)

func entry(wd time.Weekday, tod string) admin.ScheduleEntry {
	return admin.ScheduleEntry{Weekday: wd, Time: testutil.TOD(tod)}
}

func TestSetFixedScheduleReducedPlan(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	adm := testutil.AdminSession()

	c := f.AddClient(t, "Ana")
	lot := f.AddLot(t, c.ID, 2, testutil.Date(time.March, 31))
	entries := []admin.ScheduleEntry{entry(time.Monday, "09:00")}

	res, err := f.Services.Admin.SetFixedSchedule(ctx, adm, c.ID, entries, false)
	require.NoError(t, err)
	assert.True(t, res.NeedsConfirmation)
	assert.Equal(t, 4, res.Plan.Requested)
	assert.Equal(t, 2, res.Plan.MaxBookable)

	stored, err := f.Services.Admin.FixedSchedule(ctx, adm, c.ID)
	require.NoError(t, err)
	assert.Empty(t, stored, "nothing is stored until the reduced plan is accepted")
	assert.Empty(t, f.Active(t, c.ID))

	res, err = f.Services.Admin.SetFixedSchedule(ctx, adm, c.ID, entries, true)
	require.NoError(t, err)
	assert.False(t, res.NeedsConfirmation)
	assert.Equal(t, 2, res.Booked)
	assert.Equal(t, 2, res.Failed)

	require.Len(t, res.Entries, 1)
	outcomes := res.Entries[0].Series.Outcomes
	require.Len(t, outcomes, 4)
	assert.Equal(t, testutil.Date(time.March, 10), outcomes[0].Date)
	assert.Equal(t, reservation.NoCreditAvailable, outcomes[2].Reason)
	assert.Equal(t, reservation.NoCreditAvailable, outcomes[3].Reason)

	// Admin-booked series keep the client on one bed.
	assert.Equal(t, outcomes[0].Unit, outcomes[1].Unit)

	stored, err = f.Services.Admin.FixedSchedule(ctx, adm, c.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.FixedScheduleEntry{ClientID: c.ID, Weekday: time.Monday, Time: testutil.TOD("09:00")}, stored[0])
	assert.Equal(t, 0, f.Lot(t, lot.ID).Remaining)

	materialized := f.Events.OfType(events.ScheduleMaterialized)
	require.Len(t, materialized, 1)
	assert.Equal(t, 2, materialized[0].Booked)
	assert.Equal(t, 2, materialized[0].Failed)
}

func TestSetFixedScheduleOnePerDayAcrossEntries(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 20, testutil.Date(time.March, 31))

	res, err := f.Services.Admin.SetFixedSchedule(ctx, testutil.AdminSession(), c.ID, []admin.ScheduleEntry{
		entry(time.Tuesday, "07:00"),
		entry(time.Tuesday, "18:00"),
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Plan.Requested, "entries on the same weekday share their dates")
	assert.Equal(t, 4, res.Booked)
	assert.Equal(t, 4, res.Failed)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, 4, res.Entries[0].Series.Succeeded)
	for _, o := range res.Entries[1].Series.Outcomes {
		assert.Equal(t, reservation.DuplicateDayBooking, o.Reason)
	}

	for _, r := range f.Active(t, c.ID) {
		assert.Equal(t, testutil.TOD("07:00"), r.Time)
	}
}

func TestSetFixedSchedulePlanCountsEachDayOnce(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	lot := f.AddLot(t, c.ID, 4, testutil.Date(time.March, 31))

	res, err := f.Services.Admin.SetFixedSchedule(ctx, testutil.AdminSession(), c.ID, []admin.ScheduleEntry{
		entry(time.Tuesday, "07:00"),
		entry(time.Tuesday, "18:00"),
	}, false)
	require.NoError(t, err)

	// Four credits cover every Tuesday left in March.
	assert.False(t, res.NeedsConfirmation)
	assert.Equal(t, 4, res.Plan.Requested)
	assert.Equal(t, 4, res.Plan.MaxBookable)
	assert.Equal(t, 4, res.Booked)
	assert.Equal(t, 4, res.Failed)
	assert.Equal(t, 0, f.Lot(t, lot.ID).Remaining)
}

func TestSetFixedScheduleReplaces(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	adm := testutil.AdminSession()
	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 20, testutil.Date(time.March, 31))

	_, err := f.Services.Admin.SetFixedSchedule(ctx, adm, c.ID, []admin.ScheduleEntry{entry(time.Tuesday, "07:00")}, false)
	require.NoError(t, err)
	_, err = f.Services.Admin.SetFixedSchedule(ctx, adm, c.ID, []admin.ScheduleEntry{entry(time.Thursday, "09:00")}, false)
	require.NoError(t, err)

	stored, err := f.Services.Admin.FixedSchedule(ctx, testutil.ClientSession(c), c.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, time.Thursday, stored[0].Weekday)
}

func TestSetFixedScheduleValidation(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	f.AddLot(t, c.ID, 20, testutil.Date(time.March, 31))

	tests := []struct {
		name    string
		sess    session.Session
		client  uuid.UUID
		entries []admin.ScheduleEntry
		want    error
	}{
		{
			name:    "not an admin",
			sess:    testutil.ClientSession(c),
			client:  c.ID,
			entries: []admin.ScheduleEntry{entry(time.Monday, "09:00")},
			want:    session.ErrForbidden,
		},
		{
			name:    "time not on the timetable",
			sess:    testutil.AdminSession(),
			client:  c.ID,
			entries: []admin.ScheduleEntry{entry(time.Sunday, "09:00")},
			want:    admin.ErrInvalidSchedule,
		},
		{
			name:    "weekday out of range",
			sess:    testutil.AdminSession(),
			client:  c.ID,
			entries: []admin.ScheduleEntry{entry(time.Weekday(9), "09:00")},
			want:    admin.ErrInvalidSchedule,
		},
		{
			name:    "repeated entry",
			sess:    testutil.AdminSession(),
			client:  c.ID,
			entries: []admin.ScheduleEntry{entry(time.Friday, "07:00"), entry(time.Friday, "07:00")},
			want:    admin.ErrScheduleConflict,
		},
		{
			name:    "unknown client",
			sess:    testutil.AdminSession(),
			client:  uuid.New(),
			entries: []admin.ScheduleEntry{entry(time.Friday, "07:00")},
			want:    admin.ErrClientNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Services.Admin.SetFixedSchedule(ctx, tt.sess, tt.client, tt.entries, true)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, f.Active(t, c.ID))
}

func TestClients(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	adm := testutil.AdminSession()

	c, err := f.Services.Admin.RegisterClient(ctx, adm, domain.Client{Name: "  Ana  ", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, "main", c.StudioID)
	assert.NotEqual(t, uuid.Nil, c.ID)

	_, err = f.Services.Admin.RegisterClient(ctx, adm, domain.Client{Name: "Other", Email: "ANA@example.com"})
	assert.ErrorIs(t, err, admin.ErrClientConflict)

	_, err = f.Services.Admin.RegisterClient(ctx, adm, domain.Client{Name: " "})
	assert.ErrorIs(t, err, admin.ErrInvalidClient)

	_, err = f.Services.Admin.RegisterClient(ctx, testutil.ClientSession(c), domain.Client{Name: "Eve"})
	assert.ErrorIs(t, err, session.ErrForbidden)

	c.Phone = "+55 11 5555-0000"
	c.Shift = domain.ShiftEvening
	updated, err := f.Services.Admin.UpdateClient(ctx, adm, c)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftEvening, updated.Shift)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)

	_, err = f.Services.Admin.UpdateClient(ctx, adm, domain.Client{ID: uuid.New(), Name: "Ghost"})
	assert.ErrorIs(t, err, admin.ErrClientNotFound)

	list, err := f.Services.Admin.ListClients(ctx, adm, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.Services.Admin.GetClient(ctx, testutil.ClientSession(domain.Client{ID: uuid.New()}), c.ID)
	assert.ErrorIs(t, err, session.ErrForbidden)
}

func TestSellPackAndLedger(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	adm := testutil.AdminSession()
	c := f.AddClient(t, "Ana")

	lot, err := f.Services.Admin.SellPack(ctx, adm, c.ID, credit.Pack{Credits: 8, ExpiresOn: testutil.Date(time.March, 31)})
	require.NoError(t, err)
	assert.Equal(t, 8, lot.Remaining)

	_, err = f.Services.Admin.SellPack(ctx, adm, uuid.New(), credit.Pack{Credits: 8, ExpiresOn: testutil.Date(time.March, 31)})
	assert.ErrorIs(t, err, admin.ErrClientNotFound)

	_, err = f.Services.Admin.SellPack(ctx, testutil.ClientSession(c), c.ID, credit.Pack{Credits: 8, ExpiresOn: testutil.Date(time.March, 31)})
	assert.ErrorIs(t, err, session.ErrForbidden)

	require.True(t, f.Book(t, c, testutil.Date(time.March, 4), "07:00").OK())

	ledger, err := f.Services.Admin.ClientLedger(ctx, adm, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, ledger.Client.ID)
	assert.Equal(t, 7, ledger.Balance.Remaining)
	assert.Len(t, ledger.Upcoming, 1)

	_, err = f.Services.Admin.ClientLedger(ctx, adm, uuid.New())
	assert.ErrorIs(t, err, admin.ErrClientNotFound)
}
