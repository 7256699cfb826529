package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/studylog/learning-tracker/config"
	"github.com/studylog/learning-tracker/internal/application/command"
	"github.com/studylog/learning-tracker/internal/application/eventhandler"
	"github.com/studylog/learning-tracker/internal/application/query"
	"github.com/studylog/learning-tracker/internal/infrastructure/messaging"
	"github.com/studylog/learning-tracker/internal/infrastructure/persistence/postgres"
	"github.com/studylog/learning-tracker/internal/infrastructure/persistence/redis"
	"github.com/studylog/learning-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/studylog/learning-tracker/internal/store"
	"github.com/studylog/learning-tracker/pkg/circuitbreaker"
	"github.com/studylog/learning-tracker/pkg/logger"
	"github.com/studylog/learning-tracker/pkg/retry"
	"github.com/studylog/learning-tracker/pkg/timeutil"

	"gorm.io/gorm"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// application holds the wired components shared by every subcommand.
type application struct {
	cfg  *config.Config
	log  *slog.Logger
	zone timeutil.Zone

	store *store.Store
	repo  store.Repository
	bus   *messaging.InMemoryEventBus
	cache *redis.DashboardCache

	refreshBadges  *command.RefreshBadgesHandler
	createGoal     *command.CreateGoalHandler
	updateGoal     *command.UpdateGoalHandler
	deleteGoal     *command.DeleteGoalHandler
	logProgress    *command.LogProgressHandler
	deleteProgress *command.DeleteProgressHandler
	scheduleEvent  *command.ScheduleEventHandler
	deleteEvent    *command.DeleteEventHandler
	dashboard      *query.GetDashboardHandler

	closers   []func() error
	closeOnce sync.Once
}

// bootstrap wires config → repository → store → bus → cache → handlers.
func bootstrap(ctx context.Context, cfg *config.Config) (*application, error) {
	app := &application{
		cfg:  cfg,
		log:  setupLogger(cfg),
		zone: timeutil.In(cfg.App.Location),
	}

	app.log.Info("starting learning tracker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", app.zone.String(),
		"driver", cfg.Database.Driver,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 1. REPOSITORY & STORE
	// ─────────────────────────────────────────────────────────────────────────
	repo, err := app.openRepository(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.repo = repo

	if repo != nil {
		app.store, err = store.Load(ctx, repo)
		if err != nil {
			app.Close()
			return nil, err
		}
	} else {
		app.store = store.New(store.Snapshot{})
	}

	snap := app.store.Snapshot()
	app.log.Info("store loaded",
		"goals", len(snap.Goals),
		"entries", len(snap.Entries),
		"events", len(snap.Events),
		"badges", len(snap.Badges),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = app.log
	busCfg.Middlewares = []messaging.Middleware{messaging.LoggingMiddleware(app.log)}
	app.bus = messaging.NewInMemoryEventBus(busCfg)
	app.closers = append(app.closers, app.bus.Close)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	app.cache = app.connectRedis(ctx)

	if err := app.subscribe(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to subscribe handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	appLog := logger.New(logger.Options{
		Output: os.Stderr,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
	}).With(logger.String("app", cfg.App.Name))

	deps := command.Dependencies{
		Store:      app.store,
		Repository: app.repo,
		Publisher:  app.bus,
		Logger:     appLog,
		Zone:       app.zone,
	}

	app.refreshBadges = command.NewRefreshBadgesHandler(deps, nil)
	app.createGoal = command.NewCreateGoalHandler(deps)
	app.updateGoal = command.NewUpdateGoalHandler(deps, app.refreshBadges)
	app.deleteGoal = command.NewDeleteGoalHandler(deps, app.refreshBadges)
	app.logProgress = command.NewLogProgressHandler(deps, app.refreshBadges)
	app.deleteProgress = command.NewDeleteProgressHandler(deps, app.refreshBadges)
	app.scheduleEvent = command.NewScheduleEventHandler(deps)
	app.deleteEvent = command.NewDeleteEventHandler(deps)

	var dashboardCache query.DashboardCache
	if app.cache != nil {
		dashboardCache = app.cache
	}
	app.dashboard = query.NewGetDashboardHandler(app.store, dashboardCache, app.zone, appLog).
		WithBadgeRefresher(func(ctx context.Context, at time.Time) error {
			_, err := app.refreshBadges.Handle(ctx, command.RefreshBadgesCommand{Now: at})
			return err
		})

	return app, nil
}

// dashboardQuery applies configured defaults.
func (a *application) dashboardQuery(now time.Time) query.GetDashboardQuery {
	return query.GetDashboardQuery{
		Now:           now,
		Months:        a.cfg.Dashboard.Months,
		UpcomingLimit: a.cfg.Dashboard.UpcomingLimit,
		RecentGoals:   a.cfg.Dashboard.RecentGoals,
	}
}

// Close releases resources in reverse order of acquisition. Only the first
// call does any work.
func (a *application) Close() {
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				a.log.Warn("close failed", "error", err)
			}
		}
		a.closers = nil
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING
// ══════════════════════════════════════════════════════════════════════════════

func (a *application) startupRetrier(what string) *retry.Retrier {
	return retry.StartupRetrier(a.cfg.Database.ConnectAttempts, func(attempt int, err error, delay time.Duration) {
		a.log.Warn("connection attempt failed",
			"target", what,
			"attempt", attempt,
			"retry_in", delay.String(),
			"error", err,
		)
	})
}

func (a *application) openRepository(ctx context.Context) (store.Repository, error) {
	dbCfg := a.cfg.Database

	switch dbCfg.Driver {
	case config.DriverPostgres:
		pgCfg := postgres.DefaultConfig(dbCfg.URL)
		pgCfg.MaxConns = dbCfg.MaxConns
		pgCfg.MinConns = dbCfg.MinConns
		pgCfg.MaxConnLifetime = dbCfg.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = dbCfg.ConnMaxIdleTime

		conn, err := retry.DoWithData(ctx, a.startupRetrier("postgres"), func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.NewConnection(ctx, pgCfg)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, func() error {
			conn.Close()
			return nil
		})

		if dbCfg.AutoMigrate {
			applied, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			a.log.Info("database schema is up to date", "applied", applied)
		}
		total, idle, _ := conn.Stats()
		a.log.Info("postgres pool ready", "total_conns", total, "idle_conns", idle)
		return postgres.NewTrackerRepository(conn), nil

	case config.DriverSQLite:
		db, err := retry.DoWithData(ctx, a.startupRetrier("sqlite"), func(context.Context) (*gorm.DB, error) {
			return sqlite.Open(sqlite.Config{Path: dbCfg.URL, LogLevel: dbCfg.LogLevel, Logger: a.log})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		a.closers = append(a.closers, func() error { return sqlite.Close(db) })
		a.log.Info("sqlite database opened", "path", dbCfg.URL)
		return sqlite.NewRepository(db), nil

	case config.DriverMemory:
		a.log.Warn("running without persistence, state is lost on exit")
		return nil, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", dbCfg.Driver)
}

// connectRedis returns nil when Redis is disabled or unreachable; the
// dashboard is then computed on every read.
func (a *application) connectRedis(ctx context.Context) *redis.DashboardCache {
	rc := a.cfg.Redis
	if !rc.Enabled {
		return nil
	}

	cacheCfg := redis.Config{
		URL:          rc.URL,
		Host:         rc.Host,
		Port:         rc.Port,
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		KeyPrefix:    rc.KeyPrefix,
	}

	cache, err := retry.DoWithData(ctx, a.startupRetrier("redis"), func(ctx context.Context) (*redis.Cache, error) {
		return redis.NewCache(ctx, cacheCfg)
	})
	if err != nil {
		a.log.Warn("failed to connect to Redis, caching disabled", "error", err)
		return nil
	}
	a.closers = append(a.closers, cache.Close)
	a.log.Info("Redis connection established")

	breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
		a.log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}, redis.IsCacheFailure)

	return redis.NewDashboardCache(cache, a.cfg.Dashboard.CacheTTL).WithBreaker(breaker)
}

// subscribe registers the process-level event handlers.
func (a *application) subscribe() error {
	var cache eventhandler.DashboardInvalidator
	if a.cache != nil {
		cache = a.cache
	}
	return eventhandler.New(cache, a.log).Register(a.bus)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Observability.LogLevel)}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	log := slog.New(handler).With("app", cfg.App.Name)
	slog.SetDefault(log)

	return log
}

func slogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
