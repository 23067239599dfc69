package redis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
)

const ns = "bedslot:v1"

func KeySlotFreeUnits(date time.Time, tod domain.TimeOfDay) string {
	return fmt.Sprintf("%s:slot:%s:%s:free", ns, date.Format(time.DateOnly), tod)
}

func KeyDaySlots(date time.Time) string {
	return fmt.Sprintf("%s:day:%s:slots", ns, date.Format(time.DateOnly))
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdem(scope string, clientID uuid.UUID, idemKey string) string {
	return fmt.Sprintf("%s:idem:%s:%s:%s", ns, scope, clientID, idemKey)
}

func KeySessionFlag(sessionID, flag string) string {
	return fmt.Sprintf("%s:session:%s:%s", ns, sessionID, flag)
}

func ChannelSlotsChanged() string {
	return ns + ":slots:changed"
}
