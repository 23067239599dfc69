//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/clock"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/postgres"
	"github.com/kirinyoku/bedslot/internal/repository"
	pgrepo "github.com/kirinyoku/bedslot/internal/repository/postgres"
	"github.com/kirinyoku/bedslot/internal/service"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
	"github.com/kirinyoku/bedslot/internal/testutil"
)

const (
	testUser     = "bedslot"
	testPassword = "bedslot"
	testDB       = "bedslot_test"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	port := nat.Port("5432/tcp")
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"POSTGRES_USER":     testUser,
				"POSTGRES_PASSWORD": testPassword,
				"POSTGRES_DB":       testDB,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(port),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	mapped, err := ctr.MappedPort(ctx, port)
	require.NoError(t, err)

	pool, err := postgres.New(ctx, postgres.Config{
		DSN:         postgres.DSN(testUser, testPassword, host, mapped.Int(), testDB, "disable"),
		MaxConns:    8,
		PingTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.MigrateUp(ctx, pool))

	return pool
}

func seed(t *testing.T, store *pgrepo.Store, credits int) (domain.Client, domain.CreditLot) {
	t.Helper()
	ctx := context.Background()

	c := domain.Client{ID: uuid.New(), Name: "Ana", StudioID: "main", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Clients().Create(ctx, c))

	lot := domain.CreditLot{
		ID:          uuid.New(),
		ClientID:    c.ID,
		Total:       credits,
		Remaining:   credits,
		PurchasedOn: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		ExpiresOn:   time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		Status:      domain.LotActive,
	}
	require.NoError(t, store.Credits().Create(ctx, lot))

	return c, lot
}

func reservationFor(c domain.Client, lot domain.CreditLot, day int, tod string, unit domain.UnitID) domain.Reservation {
	t, _ := domain.ParseTimeOfDay(tod)
	return domain.Reservation{
		ID:        uuid.New(),
		ClientID:  c.ID,
		Date:      time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC),
		Time:      t,
		Unit:      unit,
		LotID:     lot.ID,
		Status:    domain.ReservationConfirmed,
		CreatedAt: time.Now().UTC(),
	}
}

func TestStore(t *testing.T) {
	pool := startPostgres(t)
	store := pgrepo.NewStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	t.Run("unit taken for the slot", func(t *testing.T) {
		ana, anaLot := seed(t, store, 4)
		bia, biaLot := seed(t, store, 4)

		require.NoError(t, store.Reservations().Insert(ctx, reservationFor(ana, anaLot, 4, "07:00", 2)))
		err := store.Reservations().Insert(ctx, reservationFor(bia, biaLot, 4, "07:00", 2))
		assert.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("one class per client per day", func(t *testing.T) {
		ana, lot := seed(t, store, 4)

		require.NoError(t, store.Reservations().Insert(ctx, reservationFor(ana, lot, 5, "07:00", 1)))
		err := store.Reservations().Insert(ctx, reservationFor(ana, lot, 5, "18:00", 1))
		assert.ErrorIs(t, err, repository.ErrDuplicateDay)
	})

	t.Run("decrement stops at zero", func(t *testing.T) {
		_, lot := seed(t, store, 1)

		got, err := store.Credits().Decrement(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Remaining)
		assert.Equal(t, domain.LotExhausted, got.Status)

		_, err = store.Credits().Decrement(ctx, lot.ID)
		assert.ErrorIs(t, err, repository.ErrInsufficientCredit)
	})

	t.Run("cancel restores the lot once", func(t *testing.T) {
		ana, lot := seed(t, store, 2)
		res := reservationFor(ana, lot, 6, "09:00", 3)

		require.NoError(t, store.RunTx(ctx, func(ctx context.Context, tx repository.Repos) error {
			if err := tx.Reservations().Insert(ctx, res); err != nil {
				return err
			}
			_, err := tx.Credits().Decrement(ctx, lot.ID)
			return err
		}))

		out, err := store.Reservations().CancelAndRestore(ctx, res.ID, lot.ID)
		require.NoError(t, err)
		assert.True(t, out.Success)

		out, err = store.Reservations().CancelAndRestore(ctx, res.ID, lot.ID)
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, domain.CancelMsgAlreadyCancelled, out.Message)

		got, err := store.Credits().Get(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Remaining)

		// The freed unit can be taken again.
		require.NoError(t, store.Reservations().Insert(ctx, reservationFor(ana, lot, 6, "09:00", 3)))
	})

	t.Run("rollback leaves nothing behind", func(t *testing.T) {
		ana, lot := seed(t, store, 2)
		res := reservationFor(ana, lot, 7, "07:00", 4)
		boom := errors.New("boom")

		err := store.RunTx(ctx, func(ctx context.Context, tx repository.Repos) error {
			if err := tx.Reservations().Insert(ctx, res); err != nil {
				return err
			}
			if _, err := tx.Credits().Decrement(ctx, lot.ID); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.Reservations().Get(ctx, res.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		got, err := store.Credits().Get(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Remaining)
	})

	t.Run("concurrent bookings of the last unit", func(t *testing.T) {
		// Fill five units so one remains.
		for u := domain.UnitID(1); u <= 5; u++ {
			c, lot := seed(t, store, 1)
			require.NoError(t, store.Reservations().Insert(ctx, reservationFor(c, lot, 10, "18:00", u)))
		}

		const racers = 6
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			won int
		)
		for range racers {
			c, lot := seed(t, store, 1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.RunTx(ctx, func(ctx context.Context, tx repository.Repos) error {
					if err := tx.Reservations().Insert(ctx, reservationFor(c, lot, 10, "18:00", 6)); err != nil {
						return err
					}
					_, err := tx.Credits().Decrement(ctx, lot.ID)
					return err
				})
				if err == nil {
					mu.Lock()
					won++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, repository.ErrConflict)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, won)

		taken, err := store.Reservations().ListActiveBySlot(ctx, domain.Slot{
			Date: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			Time: domain.NewTimeOfDay(18, 0),
		})
		require.NoError(t, err)
		assert.Len(t, taken, domain.UnitCount)
	})

	t.Run("concurrent cancels of one reservation", func(t *testing.T) {
		tt, err := calendar.ParseTimetable(testutil.Timetable)
		require.NoError(t, err)

		svcs := service.NewServices(service.Deps{
			Store:     store,
			Latch:     session.NewMemoryLatch(),
			Publisher: &testutil.Recorder{},
			Timetable: tt,
			Clock:     clock.NewFixedClock(testutil.Now()),
			Location:  testutil.Studio,
			Logger:    testutil.Logger(),
		}, service.Config{})

		ana, lot := seed(t, store, 2)
		res := reservationFor(ana, lot, 12, "09:00", 1)
		require.NoError(t, store.RunTx(ctx, func(ctx context.Context, tx repository.Repos) error {
			if err := tx.Reservations().Insert(ctx, res); err != nil {
				return err
			}
			_, err := tx.Credits().Decrement(ctx, lot.ID)
			return err
		}))

		const racers = 4
		var (
			start = make(chan struct{})
			wg    sync.WaitGroup
			outs  = make([]reservation.CancelResult, racers)
			errs  = make([]error, racers)
		)
		sess := testutil.ClientSession(ana)
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				outs[i], errs[i] = svcs.Reservation.Cancel(ctx, sess, res.ID, reservation.CancelOptions{})
			}()
		}
		close(start)
		wg.Wait()

		cancelled := 0
		for i := range racers {
			require.NoError(t, errs[i])
			assert.True(t, outs[i].OK())
			if outs[i].Reason == "" {
				cancelled++
				continue
			}
			assert.Equal(t, reservation.AlreadyCancelled, outs[i].Reason)
		}
		assert.Equal(t, 1, cancelled)

		got, err := store.Credits().Get(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Remaining)
	})

	t.Run("schedule replace", func(t *testing.T) {
		ana, _ := seed(t, store, 1)
		entries := []domain.FixedScheduleEntry{
			{ClientID: ana.ID, Weekday: time.Monday, Time: domain.NewTimeOfDay(7, 0)},
			{ClientID: ana.ID, Weekday: time.Thursday, Time: domain.NewTimeOfDay(18, 0)},
		}
		require.NoError(t, store.Schedules().Replace(ctx, ana.ID, entries))
		require.NoError(t, store.Schedules().Replace(ctx, ana.ID, entries[1:]))

		got, err := store.Schedules().ListByClient(ctx, ana.ID)
		require.NoError(t, err)
		assert.Equal(t, entries[1:], got)
	})

	v, err := postgres.MigrationVersion(ctx, pool)
	require.NoError(t, err)
	assert.Positive(t, v)
}
