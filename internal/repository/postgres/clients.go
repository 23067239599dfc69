package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
)

type ClientRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ClientRepo) With(db DB) *ClientRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ClientRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const clientColumns = `id, name, email, phone, studio_id, shift, created_at`

// Create inserts a client.
//
// Returns:
//   - error: repository.ErrConflict if the id or email is already taken.
func (r *ClientRepo) Create(ctx context.Context, c domain.Client) error {
	const op = "postgres.ClientRepo.Create"

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO clients(id, name, email, phone, studio_id, shift, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Email, c.Phone, c.StudioID, string(c.Shift), c.CreatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Update overwrites the mutable fields of a client.
//
// Returns:
//   - error: repository.ErrNotFound if the client does not exist.
//   - error: repository.ErrConflict if the email belongs to another client.
func (r *ClientRepo) Update(ctx context.Context, c domain.Client) error {
	const op = "postgres.ClientRepo.Update"

	tag, err := r.handle().Exec(ctx,
		`UPDATE clients
		 SET name = $2, email = $3, phone = $4, studio_id = $5, shift = $6
		 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Phone, c.StudioID, string(c.Shift),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *ClientRepo) Get(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	const op = "postgres.ClientRepo.Get"

	row := r.handle().QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)

	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, wrapDBErr(op, err)
	}

	return c, nil
}

func (r *ClientRepo) List(ctx context.Context, limit, offset int) ([]domain.Client, error) {
	const op = "postgres.ClientRepo.List"

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.handle().Query(ctx,
		`SELECT `+clientColumns+`
		 FROM clients
		 ORDER BY name, id
		 LIMIT $1 OFFSET $2`,
		limit, max(offset, 0),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.Client, 0, limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func scanClient(row pgx.Row) (domain.Client, error) {
	var (
		c     domain.Client
		shift string
	)

	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.StudioID, &shift, &c.CreatedAt); err != nil {
		return domain.Client{}, err
	}
	c.Shift = domain.Shift(shift)

	return c, nil
}
