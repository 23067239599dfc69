package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kirinyoku/bedslot/internal/events"
)

type Config struct {
	URL   string
	Queue string
}

// Publisher sends events as persistent JSON messages to a durable queue via
// the default exchange. It keeps one connection and redials after a failure.
type Publisher struct {
	cfg Config

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(cfg Config) *Publisher {
	return &Publisher{cfg: cfg}
}

// Connect dials the broker and declares the queue.
func (p *Publisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.connectLocked()
}

func (p *Publisher) connectLocked() error {
	const op = "rabbitmq.Publisher.connect"

	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}

	p.closeLocked()

	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("%s: dial: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%s: channel: %w", op, err)
	}

	if err := declareQueue(ch, p.cfg.Queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%s:%w", op, err)
	}

	p.conn, p.ch = conn, ch

	return nil
}

func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	const op = "rabbitmq.Publisher.Publish"

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID.String(),
		Type:         string(ev.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, msg); err != nil {
		p.closeLocked()
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLocked()

	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func declareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
