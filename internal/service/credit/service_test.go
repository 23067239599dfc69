package credit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/testutil"
)

func TestGrant(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")

	t.Run("creates an active lot bought today", func(t *testing.T) {
		lot, err := f.Services.Credits.Grant(ctx, c.ID, credit.Pack{Credits: 8, ExpiresOn: testutil.Date(time.April, 3)})
		require.NoError(t, err)

		assert.Equal(t, 8, lot.Total)
		assert.Equal(t, 8, lot.Remaining)
		assert.Equal(t, testutil.Date(time.March, 3), lot.PurchasedOn)
		assert.Equal(t, domain.LotActive, lot.Status)
		assert.Equal(t, lot, f.Lot(t, lot.ID))
	})

	t.Run("rejects empty packs", func(t *testing.T) {
		_, err := f.Services.Credits.Grant(ctx, c.ID, credit.Pack{Credits: 0, ExpiresOn: testutil.Date(time.April, 3)})
		assert.ErrorIs(t, err, credit.ErrInvalidPack)
	})

	t.Run("rejects packs expiring before purchase", func(t *testing.T) {
		_, err := f.Services.Credits.Grant(ctx, c.ID, credit.Pack{Credits: 4, ExpiresOn: testutil.Date(time.March, 1)})
		assert.ErrorIs(t, err, credit.ErrInvalidPack)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := f.Services.Credits.Grant(ctx, uuid.New(), credit.Pack{Credits: 4, ExpiresOn: testutil.Date(time.April, 3)})
		assert.ErrorIs(t, err, credit.ErrClientNotFound)
	})
}

func TestBalance(t *testing.T) {
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")

	f.AddLot(t, c.ID, 4, testutil.Date(time.March, 20))
	f.AddLot(t, c.ID, 2, testutil.Date(time.March, 10))
	f.AddLot(t, c.ID, 9, testutil.Date(time.March, 2))

	sum, err := f.Services.Credits.Balance(context.Background(), c.ID)
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Remaining)
	assert.Equal(t, 2, sum.ActiveLots)
	require.NotNil(t, sum.NextExpiry)
	assert.Equal(t, testutil.Date(time.March, 10), *sum.NextExpiry)
	assert.Len(t, sum.Lots, 3)
}

func TestWarnOncePerSession(t *testing.T) {
	ctx := context.Background()
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	lot := f.AddLot(t, c.ID, 1, testutil.Date(time.March, 31))

	sess := testutil.ClientSession(c)

	w := f.Services.Credits.Warn(ctx, sess, c.ID, lot)
	require.NotNil(t, w)
	assert.True(t, w.LowBalance)
	assert.False(t, w.ExpiringSoon)

	assert.Nil(t, f.Services.Credits.Warn(ctx, sess, c.ID, lot))

	other := sess
	other.ID = "another-session"
	assert.NotNil(t, f.Services.Credits.Warn(ctx, other, c.ID, lot))

	warnings := f.Events.OfType(events.CreditWarning)
	require.Len(t, warnings, 2)
	assert.Equal(t, c.ID, warnings[0].ClientID)
	require.NotNil(t, warnings[0].Remaining)
	assert.Equal(t, 1, *warnings[0].Remaining)
	assert.Equal(t, "2025-03-31", warnings[0].ExpiresOn)
}

func TestWarnSkipsHealthyLots(t *testing.T) {
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	lot := f.AddLot(t, c.ID, 6, testutil.Date(time.March, 31))

	assert.Nil(t, f.Services.Credits.Warn(context.Background(), testutil.ClientSession(c), c.ID, lot))
	assert.Empty(t, f.Events.OfType(events.CreditWarning))
}

func TestExpireLots(t *testing.T) {
	f := testutil.New(t)
	c := f.AddClient(t, "Ana")
	stale := f.AddLot(t, c.ID, 3, testutil.Date(time.March, 1))
	f.AddLot(t, c.ID, 3, testutil.Date(time.March, 31))

	n, err := f.Services.Credits.ExpireLots(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, domain.LotExpired, f.Lot(t, stale.ID).Status)
}
