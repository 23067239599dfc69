package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
)

type CreditRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CreditRepo) With(db DB) *CreditRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CreditRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const lotColumns = `id, client_id, total, remaining, purchased_on, expires_on, status`

func (r *CreditRepo) Create(ctx context.Context, lot domain.CreditLot) error {
	const op = "postgres.CreditRepo.Create"

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO credit_lots(id, client_id, total, remaining, purchased_on, expires_on, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		lot.ID, lot.ClientID, lot.Total, lot.Remaining, lot.PurchasedOn, lot.ExpiresOn, string(lot.Status),
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *CreditRepo) Get(ctx context.Context, id uuid.UUID) (domain.CreditLot, error) {
	const op = "postgres.CreditRepo.Get"

	lot, err := scanLot(r.handle().QueryRow(ctx,
		`SELECT `+lotColumns+` FROM credit_lots WHERE id = $1`, id))
	if err != nil {
		return domain.CreditLot{}, wrapDBErr(op, err)
	}

	return lot, nil
}

// ListByClient returns the client's lots, oldest purchase first. Inside a
// transaction the rows are locked so concurrent bookings by the same client
// queue behind each other.
func (r *CreditRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.CreditLot, error) {
	const op = "postgres.CreditRepo.ListByClient"

	query := `SELECT ` + lotColumns + `
		 FROM credit_lots
		 WHERE client_id = $1
		 ORDER BY purchased_on, id`
	if r.db != nil {
		query += ` FOR UPDATE`
	}

	rows, err := r.handle().Query(ctx, query, clientID)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.CreditLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Decrement takes one credit from the lot.
//
// Returns:
//   - error: repository.ErrInsufficientCredit if remaining is already zero.
//   - error: repository.ErrNotFound if the lot does not exist.
func (r *CreditRepo) Decrement(ctx context.Context, lotID uuid.UUID) (domain.CreditLot, error) {
	const op = "postgres.CreditRepo.Decrement"

	db := r.handle()

	lot, err := scanLot(db.QueryRow(ctx,
		`UPDATE credit_lots
		 SET remaining = remaining - 1,
		     status = CASE WHEN remaining - 1 = 0 THEN 'exhausted' ELSE status END
		 WHERE id = $1 AND remaining > 0
		 RETURNING `+lotColumns,
		lotID,
	))
	if err == nil {
		return lot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.CreditLot{}, wrapDBErr(op, err)
	}

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM credit_lots WHERE id = $1)`, lotID,
	).Scan(&exists); err != nil {
		return domain.CreditLot{}, wrapDBErr(op, err)
	}
	if !exists {
		return domain.CreditLot{}, wrapDBErr(op, repository.ErrNotFound)
	}

	return domain.CreditLot{}, wrapDBErr(op, repository.ErrInsufficientCredit)
}

// Restore returns one credit to the lot, capped at its total. Expired lots
// are restored too.
func (r *CreditRepo) Restore(ctx context.Context, lotID uuid.UUID) (domain.CreditLot, error) {
	const op = "postgres.CreditRepo.Restore"

	lot, err := scanLot(r.handle().QueryRow(ctx,
		`UPDATE credit_lots
		 SET remaining = LEAST(remaining + 1, total),
		     status = CASE WHEN status = 'exhausted' THEN 'active' ELSE status END
		 WHERE id = $1
		 RETURNING `+lotColumns,
		lotID,
	))
	if err != nil {
		return domain.CreditLot{}, wrapDBErr(op, err)
	}

	return lot, nil
}

func (r *CreditRepo) RefreshStatuses(ctx context.Context, today time.Time) (int64, error) {
	const op = "postgres.CreditRepo.RefreshStatuses"

	tag, err := r.handle().Exec(ctx,
		`WITH next AS (
		     SELECT id,
		            CASE
		                WHEN remaining = 0 THEN 'exhausted'
		                WHEN expires_on < $1 THEN 'expired'
		                ELSE 'active'
		            END AS status
		     FROM credit_lots
		 )
		 UPDATE credit_lots l
		 SET status = next.status
		 FROM next
		 WHERE l.id = next.id AND l.status <> next.status`,
		today,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

func scanLot(row pgx.Row) (domain.CreditLot, error) {
	var (
		lot    domain.CreditLot
		status string
	)

	if err := row.Scan(
		&lot.ID, &lot.ClientID, &lot.Total, &lot.Remaining,
		&lot.PurchasedOn, &lot.ExpiresOn, &status,
	); err != nil {
		return domain.CreditLot{}, err
	}
	lot.Status = domain.LotStatus(status)

	return lot, nil
}
