package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kirinyoku/bedslot/internal/app"
	"github.com/kirinyoku/bedslot/internal/config"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/logger"
	"github.com/kirinyoku/bedslot/internal/postgres"
	"github.com/kirinyoku/bedslot/internal/session"
)

func load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stdout), nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			application, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				log.Error("failed to create application", "error", err)
				return err
			}

			if err := application.Run(cmd.Context()); err != nil {
				log.Error("application finished with error", "error", err)
				return err
			}
			return nil
		},
	}
}

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume booking events from RabbitMQ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			w, err := app.NewWorker(cfg, log)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}

	run := func(fn func(ctx context.Context, cfg *config.Config, log *slog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations need STORE_DRIVER=postgres, got %q", cfg.Store.Driver)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return fn(ctx, cfg, log)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: run(func(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
				pool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
				if err != nil {
					return err
				}
				defer pool.Close()

				if err := postgres.MigrateUp(ctx, pool); err != nil {
					return err
				}
				log.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: run(func(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
				pool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
				if err != nil {
					return err
				}
				defer pool.Close()

				if err := postgres.MigrateDown(ctx, pool); err != nil {
					return err
				}
				log.Info("latest migration rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: run(func(ctx context.Context, cfg *config.Config, _ *slog.Logger) error {
				pool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
				if err != nil {
					return err
				}
				defer pool.Close()

				v, err := postgres.MigrationVersion(ctx, pool)
				if err != nil {
					return err
				}
				fmt.Println(v)
				return nil
			}),
		},
	)

	return cmd
}

// newTokenCommand mints a bearer token for local development. Production
// tokens come from the identity provider.
func newTokenCommand() *cobra.Command {
	var (
		role     string
		clientID string
		studioID string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}

			s := session.Session{Role: domain.Role(role), StudioID: studioID}
			if clientID != "" {
				if s.ClientID, err = uuid.Parse(clientID); err != nil {
					return fmt.Errorf("invalid --client: %w", err)
				}
			}
			if s.Role == domain.RoleClient && s.ClientID == uuid.Nil {
				return fmt.Errorf("--client is required for role %q", role)
			}

			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := session.NewTokens(cfg.Auth.JWTSecret, ttl).Issue(s)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(domain.RoleClient), "Role: client or admin")
	cmd.Flags().StringVar(&clientID, "client", "", "Client ID (uuid)")
	cmd.Flags().StringVar(&studioID, "studio", "", "Studio ID")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default JWT_TTL)")

	return cmd
}
