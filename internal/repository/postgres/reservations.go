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

type ReservationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ReservationRepo) With(db DB) *ReservationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ReservationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const reservationColumns = `id, client_id, slot_date, slot_time, unit, credit_lot_id, status, created_at, cancelled_at`

// Insert stores a reservation. The partial unique indexes on the table are
// the arbiter for concurrent writers.
//
// Returns:
//   - error: repository.ErrConflict if the unit is taken for the slot.
//   - error: repository.ErrDuplicateDay if the client already has a class that day.
//   - error: repository.ErrNotFound if the client or credit lot does not exist.
func (r *ReservationRepo) Insert(ctx context.Context, res domain.Reservation) error {
	const op = "postgres.ReservationRepo.Insert"

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO reservations(id, client_id, slot_date, slot_time, unit, credit_lot_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.ID, res.ClientID, res.Date, toPgTime(res.Time), int16(res.Unit),
		res.LotID, string(res.Status), res.CreatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *ReservationRepo) Get(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	const op = "postgres.ReservationRepo.Get"

	res, err := scanReservation(r.handle().QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return domain.Reservation{}, wrapDBErr(op, err)
	}

	return res, nil
}

func (r *ReservationRepo) ListActiveBySlot(ctx context.Context, slot domain.Slot) ([]domain.Reservation, error) {
	const op = "postgres.ReservationRepo.ListActiveBySlot"

	res, err := r.list(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE slot_date = $1 AND slot_time = $2 AND status <> 'cancelled'
		 ORDER BY unit`,
		slot.Date, toPgTime(slot.Time),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return res, nil
}

func (r *ReservationRepo) ListActiveByDate(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	const op = "postgres.ReservationRepo.ListActiveByDate"

	res, err := r.list(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE slot_date = $1 AND status <> 'cancelled'
		 ORDER BY slot_time, unit`,
		date,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return res, nil
}

// ListActiveByClient returns the client's non-cancelled reservations dated
// within [from, to]. A zero to means no upper bound.
func (r *ReservationRepo) ListActiveByClient(
	ctx context.Context,
	clientID uuid.UUID,
	from, to time.Time,
) ([]domain.Reservation, error) {
	const op = "postgres.ReservationRepo.ListActiveByClient"

	var upper pgtype.Date
	if !to.IsZero() {
		upper = pgtype.Date{Time: to, Valid: true}
	}

	res, err := r.list(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE client_id = $1
		   AND status <> 'cancelled'
		   AND slot_date >= $2
		   AND ($3::date IS NULL OR slot_date <= $3)
		 ORDER BY slot_date, slot_time`,
		clientID, from, upper,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return res, nil
}

// CancelAndRestore calls the cancel_reservation function, which cancels the
// reservation and restores its credit lot in one statement.
func (r *ReservationRepo) CancelAndRestore(
	ctx context.Context,
	reservationID, lotID uuid.UUID,
) (domain.CancelOutcome, error) {
	const op = "postgres.ReservationRepo.CancelAndRestore"

	var out domain.CancelOutcome
	if err := r.handle().QueryRow(ctx,
		`SELECT success, message FROM cancel_reservation($1, $2)`,
		reservationID, lotID,
	).Scan(&out.Success, &out.Message); err != nil {
		return domain.CancelOutcome{}, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *ReservationRepo) list(ctx context.Context, sql string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.handle().Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}

	return out, rows.Err()
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		res      domain.Reservation
		slotTime pgtype.Time
		unit     int16
		status   string
	)

	if err := row.Scan(
		&res.ID, &res.ClientID, &res.Date, &slotTime, &unit,
		&res.LotID, &status, &res.CreatedAt, &res.CancelledAt,
	); err != nil {
		return domain.Reservation{}, err
	}

	res.Time = fromPgTime(slotTime)
	res.Unit = domain.UnitID(unit)
	res.Status = domain.ReservationStatus(status)

	return res, nil
}
