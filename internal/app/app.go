package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/bedslot/internal/clock"
	"github.com/kirinyoku/bedslot/internal/config"
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/postgres"
	"github.com/kirinyoku/bedslot/internal/queue/rabbitmq"
	"github.com/kirinyoku/bedslot/internal/redis"
	"github.com/kirinyoku/bedslot/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/bedslot/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/bedslot/internal/repository/redis"
	"github.com/kirinyoku/bedslot/internal/service"
	"github.com/kirinyoku/bedslot/internal/service/availability"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
	httpgin "github.com/kirinyoku/bedslot/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	closers    []func()
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	loc, err := cfg.Studio.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load studio time zone: %w", err)
	}
	timetable, err := cfg.Studio.ParseTimetable()
	if err != nil {
		return nil, fmt.Errorf("failed to parse timetable: %w", err)
	}

	store, ready, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := service.Deps{
		Store:     store,
		Latch:     session.NewMemoryLatch(),
		Publisher: events.NewLogPublisher(logger),
		Timetable: timetable,
		Clock:     clock.NewRealClock(),
		Location:  loc,
		Logger:    logger,
	}

	routerDeps := httpgin.Deps{
		Tokens:       session.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       logger,
		Ready:        ready,
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			OpTimeout: cfg.Redis.OpTimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		pubsub := redisrepo.NewSlotsPubSub(rdb)

		deps.Cache = redisrepo.NewSlotCache(rdb, logger)
		deps.Feed = pubsub
		deps.Latch = redisrepo.NewSessionLatch(rdb, cfg.Auth.TokenTTL)

		routerDeps.Idem = redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)
		routerDeps.Limiter = redisrepo.NewWriteLimiter(rdb, int(cfg.Booking.RateLimit), cfg.Booking.RateWindow)
		routerDeps.Slots = pubsub
		routerDeps.Ready = readyAll(ready, func(ctx context.Context) error { return pingRedis(ctx, rdb) })
	}

	if cfg.RabbitMQ.Enabled {
		pub := rabbitmq.NewPublisher(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err := pub.Connect(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		a.closers = append(a.closers, func() { _ = pub.Close() })
		deps.Publisher = pub
	}

	routerDeps.Services = service.NewServices(deps, service.Config{
		Availability: availability.Config{SlotTTL: cfg.Booking.SlotCacheTTL},
		Credit: credit.Config{
			LowBalanceThreshold: cfg.Booking.LowBalanceThreshold,
			ExpiryWarningDays:   cfg.Booking.ExpiryWarningDays,
		},
		Reservation: reservation.Config{LateCancelWindow: cfg.Booking.LateCancelWindow},
	})

	a.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           httpgin.NewRouter(routerDeps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (service.Store, func(context.Context) error, error) {
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		a.logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), nil, nil
	default:
		pool, err := postgres.New(ctx, postgres.Config{
			DSN:      a.cfg.Postgres.DSN(),
			MaxConns: a.cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if a.cfg.Store.AutoMigrate {
			if err := postgres.MigrateUp(ctx, pool); err != nil {
				return nil, nil, fmt.Errorf("failed to migrate: %w", err)
			}
		}

		store := postgresrepo.NewStore(pool)
		return store, store.Ping, nil
	}
}

func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", a.httpServer.Addr, "store", a.cfg.Store.Driver)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownPeriod)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func pingRedis(ctx context.Context, rdb *goredis.Client) error {
	return rdb.Ping(ctx).Err()
}

func readyAll(checks ...func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
