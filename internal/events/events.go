// Package events describes the side effects the booking engine hands off to
// other systems (notifications, billing). The engine only records them.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	BookingConfirmed     Type = "booking.confirmed"
	BookingCancelled     Type = "booking.cancelled"
	CreditWarning        Type = "credit.warning"
	ScheduleMaterialized Type = "schedule.materialized"
)

type Event struct {
	ID            uuid.UUID  `json:"id"`
	Type          Type       `json:"type"`
	OccurredAt    time.Time  `json:"occurred_at"`
	ClientID      uuid.UUID  `json:"client_id"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	LotID         *uuid.UUID `json:"lot_id,omitempty"`
	Date          string     `json:"date,omitempty"`
	Time          string     `json:"time,omitempty"`
	Unit          int        `json:"unit,omitempty"`
	Remaining     *int       `json:"remaining,omitempty"`
	ExpiresOn     string     `json:"expires_on,omitempty"`
	Booked        int        `json:"booked,omitempty"`
	Failed        int        `json:"failed,omitempty"`
	Late          bool       `json:"late,omitempty"`
}

// New stamps an event with an id and time.
func New(t Type, clientID uuid.UUID, at time.Time) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: at.UTC(), ClientID: clientID}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// LogPublisher writes events to the log. It stands in when no broker is
// configured.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, ev Event) error {
	p.log.InfoContext(ctx, "event",
		slog.String("type", string(ev.Type)),
		slog.String("id", ev.ID.String()),
		slog.String("client_id", ev.ClientID.String()),
		slog.String("date", ev.Date),
		slog.String("time", ev.Time),
	)
	return nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
