package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studylog/learning-tracker/config"
	"github.com/studylog/learning-tracker/internal/infrastructure/scheduler"
	"github.com/studylog/learning-tracker/internal/infrastructure/scheduler/jobs"
)

const (
	jobRefreshBadges = "refresh_badges"
	jobDailyRollover = "daily_rollover"
)

// runDaemon keeps the tracker alive with its background jobs until SIGINT or
// SIGTERM arrives.
func runDaemon(ctx context.Context, cfg *config.Config) error {
	app, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}

	log := app.log

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched, err := app.newScheduler()
	if err != nil {
		app.Close()
		return err
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			app.Close()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		for _, info := range sched.ListJobs() {
			log.Info("job registered", "name", info.Name, "schedule", info.Schedule, "next_run", info.NextRun)
		}
	} else {
		log.Warn("scheduler disabled, badges refresh only on writes")
	}

	g, gctx := errgroup.WithContext(ctx)

	// Startup refresh brings streak badges up to date after downtime.
	g.Go(func() error {
		if _, err := sched.RunNow(gctx, jobRefreshBadges); err != nil && !errors.Is(err, scheduler.ErrJobBusy) {
			log.Warn("startup refresh failed", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	log.Info("learning tracker is running",
		"timezone", app.zone.String(),
		"scheduler", cfg.Scheduler.Enabled,
		"cache", app.cache != nil,
	)

	_ = g.Wait()
	log.Info("received shutdown signal")

	// ─────────────────────────────────────────────────────────────────────────
	// GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if sched.IsRunning() {
			if err := sched.Stop(); err != nil {
				log.Warn("scheduler stop failed", "error", err)
			}
		}
		app.Close()
	}()

	select {
	case <-done:
		log.Info("shutdown completed successfully")
		return nil
	case <-time.After(cfg.App.ShutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", cfg.App.ShutdownTimeout)
	}
}

// newScheduler registers the interval refresh and the daily rollover. Both
// run the same job so that streaks and "today" follow the calendar.
func (a *application) newScheduler() (*scheduler.Scheduler, error) {
	cfg := a.cfg.Scheduler
	loc := a.zone.Location()

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   a.log,
		Timezone: loc,
	})

	refreshCfg := jobs.DefaultRefreshBadgesConfig()
	refreshCfg.Name = jobRefreshBadges
	refreshCfg.DashboardQuery = a.dashboardQuery(time.Time{})
	refreshCfg.Timeout = cfg.JobTimeout

	if err := sched.Register(
		jobs.NewRefreshBadgesJob(a.refreshBadges, a.dashboard, a.log, refreshCfg),
		scheduler.NewIntervalSchedule(cfg.RefreshInterval),
	); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", jobRefreshBadges, err)
	}

	daily, err := scheduler.NewDailySchedule(cfg.RolloverTime, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid rollover time: %w", err)
	}

	rolloverCfg := refreshCfg
	rolloverCfg.Name = jobDailyRollover
	if err := sched.Register(
		jobs.NewRefreshBadgesJob(a.refreshBadges, a.dashboard, a.log, rolloverCfg),
		daily,
	); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", jobDailyRollover, err)
	}

	return sched, nil
}
