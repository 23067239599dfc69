package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kirinyoku/bedslot/internal/events"
)

// Handler processes one event. Returning an error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, ev events.Event) error

type Consumer struct {
	cfg        Config
	log        *slog.Logger
	prefetch   int
	maxBackoff time.Duration
}

func NewConsumer(cfg Config, log *slog.Logger) *Consumer {
	return &Consumer{cfg: cfg, log: log, prefetch: 50, maxBackoff: 30 * time.Second}
}

// Run consumes until ctx is done, redialing with exponential backoff when
// the broker goes away.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	backoff := time.Second

	for {
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			c.log.Warn("rabbitmq: dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn, h)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.log.Warn("rabbitmq: consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, h Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.log.Warn("rabbitmq: set qos failed", "error", err)
	}

	if err := declareQueue(ch, c.cfg.Queue); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body, h); err != nil {
				c.log.Error("rabbitmq: handle message failed", "error", err, "message_id", d.MessageId)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte, h Handler) error {
	var ev events.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return h(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
