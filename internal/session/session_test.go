package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/bedslot/internal/domain"
)

func TestTokens_IssueParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	clientID := uuid.New()

	raw, err := tokens.Issue(Session{
		ClientID: clientID,
		Role:     domain.RoleClient,
		StudioID: "downtown",
		Shift:    domain.ShiftMorning,
	})
	require.NoError(t, err)

	s, err := tokens.Parse(raw)
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, clientID, s.ClientID)
	assert.Equal(t, domain.RoleClient, s.Role)
	assert.Equal(t, "downtown", s.StudioID)
	assert.Equal(t, domain.ShiftMorning, s.Shift)
	assert.False(t, s.ExpiresAt.IsZero())
}

func TestTokens_ParseRejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	other := NewTokens("other-secret", time.Hour)

	foreign, err := other.Issue(Session{ClientID: uuid.New(), Role: domain.RoleClient})
	require.NoError(t, err)

	noClient, err := tokens.Issue(Session{Role: domain.RoleClient})
	require.NoError(t, err)

	badRole, err := tokens.Issue(Session{ClientID: uuid.New(), Role: "owner"})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: domain.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "garbage", raw: "not-a-token"},
		{name: "wrong secret", raw: foreign},
		{name: "client without id", raw: noClient},
		{name: "unknown role", raw: badRole},
		{name: "alg none", raw: unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Parse(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issuedAt := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }

	raw, err := tokens.Issue(Session{ClientID: uuid.New(), Role: domain.RoleClient})
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }

	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestSession_ResolveClient(t *testing.T) {
	me := uuid.New()
	someone := uuid.New()

	client := Session{ClientID: me, Role: domain.RoleClient}
	admin := Session{Role: domain.RoleAdmin}

	got, err := client.ResolveClient(uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, me, got)

	got, err = client.ResolveClient(me)
	require.NoError(t, err)
	assert.Equal(t, me, got)

	_, err = client.ResolveClient(someone)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err = admin.ResolveClient(someone)
	require.NoError(t, err)
	assert.Equal(t, someone, got)

	_, err = admin.ResolveClient(uuid.Nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMemoryLatch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	latch := NewMemoryLatch()
	latch.now = func() time.Time { return now }

	s := Session{ID: "s1", ExpiresAt: now.Add(time.Hour)}

	first, err := latch.First(ctx, s, "credit-warning")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := latch.First(ctx, s, "credit-warning")
	require.NoError(t, err)
	assert.False(t, again)

	otherKey, err := latch.First(ctx, s, "other")
	require.NoError(t, err)
	assert.True(t, otherKey)

	newSession, err := latch.First(ctx, Session{ID: "s2"}, "credit-warning")
	require.NoError(t, err)
	assert.True(t, newSession)

	now = now.Add(2 * time.Hour)
	afterExpiry, err := latch.First(ctx, s, "credit-warning")
	require.NoError(t, err)
	assert.True(t, afterExpiry)
}
