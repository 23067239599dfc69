package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/bedslot/internal/repository"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool   *pgxpool.Pool
	txOpts pgx.TxOptions
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		txOpts: pgx.TxOptions{
			IsoLevel:   pgx.Serializable,
			AccessMode: pgx.ReadWrite,
		},
	}
}

// RunTx runs fn in a transaction. Serialization failures and unique
// violations, including those raised at commit, come back as
// repository.ErrConflict or repository.ErrDuplicateDay.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Repos) error,
) error {
	tx, err := s.pool.BeginTx(ctx, s.txOpts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, s.bind(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", translateDBErr(err))
	}

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Clients() repository.ClientRepository           { return &ClientRepo{pool: s.pool} }
func (s *Store) Credits() repository.CreditRepository           { return &CreditRepo{pool: s.pool} }
func (s *Store) Reservations() repository.ReservationRepository { return &ReservationRepo{pool: s.pool} }
func (s *Store) Schedules() repository.ScheduleRepository       { return &ScheduleRepo{pool: s.pool} }

func (s *Store) bind(tx DB) repository.Repos {
	return txRepos{pool: s.pool, tx: tx}
}

type txRepos struct {
	pool *pgxpool.Pool
	tx   DB
}

func (r txRepos) Clients() repository.ClientRepository {
	return (&ClientRepo{pool: r.pool}).With(r.tx)
}

func (r txRepos) Credits() repository.CreditRepository {
	return (&CreditRepo{pool: r.pool}).With(r.tx)
}

func (r txRepos) Reservations() repository.ReservationRepository {
	return (&ReservationRepo{pool: r.pool}).With(r.tx)
}

func (r txRepos) Schedules() repository.ScheduleRepository {
	return (&ScheduleRepo{pool: r.pool}).With(r.tx)
}
