package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/bedslot/internal/config"
	"github.com/kirinyoku/bedslot/internal/events"
)

func TestNewWorkerRequiresQueue(t *testing.T) {
	_, err := NewWorker(&config.Config{}, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, ErrQueueDisabled)
}

func TestWorkerHandle(t *testing.T) {
	var buf bytes.Buffer
	w := &Worker{logger: slog.New(slog.NewTextHandler(&buf, nil))}
	ctx := context.Background()
	at := time.Date(2025, time.March, 3, 13, 0, 0, 0, time.UTC)

	remaining := 1
	warn := events.New(events.CreditWarning, uuid.New(), at)
	warn.Remaining = &remaining
	warn.ExpiresOn = "2025-03-06"

	for _, ev := range []events.Event{
		events.New(events.BookingConfirmed, uuid.New(), at),
		events.New(events.BookingCancelled, uuid.New(), at),
		warn,
		events.New(events.ScheduleMaterialized, uuid.New(), at),
	} {
		require.NoError(t, w.handle(ctx, ev), ev.Type)
	}

	out := buf.String()
	assert.Contains(t, out, "reservation notice")
	assert.Contains(t, out, "credit warning notice")
	assert.Contains(t, out, "remaining=1")
	assert.Contains(t, out, "schedule notice")

	err := w.handle(ctx, events.New(events.Type("refund.issued"), uuid.New(), at))
	assert.ErrorContains(t, err, "unknown event type")
}
