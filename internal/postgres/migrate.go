package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	const op = "postgres.MigrateUp"

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := setupGoose(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	const op = "postgres.MigrateDown"

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := setupGoose(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// MigrationVersion reports the current schema version.
func MigrationVersion(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	const op = "postgres.MigrationVersion"

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := setupGoose(); err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return v, nil
}

func setupGoose() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	return goose.SetDialect("postgres")
}
