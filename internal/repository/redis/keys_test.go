package redis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/bedslot/internal/domain"
)

func TestKeys(t *testing.T) {
	date := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	tod := domain.NewTimeOfDay(7, 0)
	client := uuid.MustParse("5b0c7a9e-1c1f-4b8a-9d0e-2f3a4b5c6d7e")

	assert.Equal(t, "bedslot:v1:slot:2025-03-04:07:00:free", KeySlotFreeUnits(date, tod))
	assert.Equal(t, "bedslot:v1:day:2025-03-04:slots", KeyDaySlots(date))
	assert.Equal(t, "bedslot:v1:rl:book:client:42", KeyRateLimit("book", "client:42"))
	assert.Equal(t, "bedslot:v1:idem:book:"+client.String()+":abc", KeyIdem("book", client, "abc"))
	assert.Equal(t, "bedslot:v1:session:s1:credit_warning", KeySessionFlag("s1", "credit_warning"))
	assert.Equal(t, "bedslot:v1:slots:changed", ChannelSlotsChanged())
}
