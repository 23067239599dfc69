package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirinyoku/bedslot/internal/config"
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/queue/rabbitmq"
)

var ErrQueueDisabled = errors.New("rabbitmq is disabled (set RABBITMQ_ENABLED=true)")

// Worker drains booking events from the broker and hands them to the
// notification side. Delivery to clients is out of scope here, so every
// event is logged.
type Worker struct {
	consumer *rabbitmq.Consumer
	logger   *slog.Logger
}

func NewWorker(cfg *config.Config, logger *slog.Logger) (*Worker, error) {
	if !cfg.RabbitMQ.Enabled {
		return nil, ErrQueueDisabled
	}

	return &Worker{
		consumer: rabbitmq.NewConsumer(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, logger),
		logger:   logger,
	}, nil
}

func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w.logger.Info("worker consuming events")

	err := w.consumer.Run(ctx, w.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) handle(ctx context.Context, ev events.Event) error {
	switch ev.Type {
	case events.BookingConfirmed, events.BookingCancelled:
		w.logger.InfoContext(ctx, "reservation notice",
			"type", string(ev.Type),
			"client_id", ev.ClientID,
			"date", ev.Date,
			"time", ev.Time,
			"unit", ev.Unit,
			"late", ev.Late,
		)
	case events.CreditWarning:
		remaining := 0
		if ev.Remaining != nil {
			remaining = *ev.Remaining
		}
		w.logger.InfoContext(ctx, "credit warning notice",
			"client_id", ev.ClientID,
			"remaining", remaining,
			"expires_on", ev.ExpiresOn,
		)
	case events.ScheduleMaterialized:
		w.logger.InfoContext(ctx, "schedule notice",
			"client_id", ev.ClientID,
			"booked", ev.Booked,
			"failed", ev.Failed,
		)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}
