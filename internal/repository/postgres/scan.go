package postgres

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kirinyoku/bedslot/internal/domain"
)

const microsPerMinute = 60 * 1_000_000

func toPgTime(t domain.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Minutes()) * microsPerMinute, Valid: true}
}

func fromPgTime(t pgtype.Time) domain.TimeOfDay {
	m := int(t.Microseconds / microsPerMinute)
	return domain.NewTimeOfDay(m/60, m%60)
}
