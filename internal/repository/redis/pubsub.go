package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/bedslot/internal/domain"
)

// SlotChange is broadcast whenever a reservation in a slot is created or
// cancelled. Subscribers use it to refresh their view; nothing in the
// booking path depends on delivery.
type SlotChange struct {
	Type   string           `json:"type"`
	Date   string           `json:"date"`
	Time   domain.TimeOfDay `json:"time"`
	TsUnix int64            `json:"ts_unix"`
}

const (
	SlotBooked    = "slot_booked"
	SlotCancelled = "slot_cancelled"
)

type SlotsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewSlotsPubSub(rdb *redis.Client) *SlotsPubSub {
	return &SlotsPubSub{
		rdb:     rdb,
		channel: ChannelSlotsChanged(),
	}
}

func (p *SlotsPubSub) PublishSlotChanged(ctx context.Context, kind string, slot domain.Slot) error {
	msg := SlotChange{
		Type:   kind,
		Date:   slot.Date.Format(time.DateOnly),
		Time:   slot.Time,
		TsUnix: time.Now().Unix(),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks, calling handler for every well-formed change until ctx
// is done or the subscription closes.
func (p *SlotsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, ch SlotChange)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var change SlotChange
			if err := json.Unmarshal([]byte(m.Payload), &change); err == nil && change.Date != "" {
				handler(ctx, change)
			}
		}
	}
}
