package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/bedslot/internal/domain"
)

type ScheduleRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ScheduleRepo) With(db DB) *ScheduleRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ScheduleRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Replace deletes the client's fixed schedule and inserts entries in one
// batch. Call it inside a transaction so readers never see the empty set.
//
// Returns:
//   - error: repository.ErrConflict if entries repeat a (weekday, time) pair.
//   - error: repository.ErrNotFound if the client does not exist.
func (r *ScheduleRepo) Replace(ctx context.Context, clientID uuid.UUID, entries []domain.FixedScheduleEntry) error {
	const op = "postgres.ScheduleRepo.Replace"

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM fixed_schedule WHERE client_id = $1`, clientID)
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO fixed_schedule(client_id, weekday, slot_time)
			 VALUES ($1, $2, $3)`,
			clientID, int16(e.Weekday), toPgTime(e.Time),
		)
	}

	if err := r.handle().SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *ScheduleRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.FixedScheduleEntry, error) {
	const op = "postgres.ScheduleRepo.ListByClient"

	rows, err := r.handle().Query(ctx,
		`SELECT weekday, slot_time
		 FROM fixed_schedule
		 WHERE client_id = $1
		 ORDER BY weekday, slot_time`,
		clientID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.FixedScheduleEntry
	for rows.Next() {
		var (
			weekday  int16
			slotTime pgtype.Time
		)
		if err := rows.Scan(&weekday, &slotTime); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, domain.FixedScheduleEntry{
			ClientID: clientID,
			Weekday:  time.Weekday(weekday),
			Time:     fromPgTime(slotTime),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
