// Package jobs contains the tracker's scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/application/command"
	"github.com/studylog/learning-tracker/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH BADGES JOB
// ══════════════════════════════════════════════════════════════════════════════

// BadgeRefresher re-evaluates badges against the current store.
type BadgeRefresher interface {
	Handle(ctx context.Context, cmd command.RefreshBadgesCommand) (*command.RefreshBadgesResult, error)
}

// DashboardBuilder builds (and caches) the dashboard read model.
type DashboardBuilder interface {
	Handle(ctx context.Context, q query.GetDashboardQuery) (*query.DashboardDTO, error)
}

// RefreshBadgesJob re-evaluates badges so that streak-based progress follows
// the calendar even when nothing is logged, then warms the dashboard cache.
type RefreshBadgesJob struct {
	name      string
	badges    BadgeRefresher
	dashboard DashboardBuilder
	logger    *slog.Logger
	clock     func() time.Time
	config    RefreshBadgesConfig

	lastStats atomic.Value // *RefreshStats
}

// RefreshBadgesConfig contains configuration for the job.
type RefreshBadgesConfig struct {
	// Name distinguishes several registrations of the job (interval and
	// daily rollover).
	Name string

	// WarmDashboard builds the dashboard after the refresh.
	WarmDashboard bool

	// DashboardQuery is used for the warm-up.
	DashboardQuery query.GetDashboardQuery

	// Timeout is the maximum duration of one run.
	Timeout time.Duration
}

// DefaultRefreshBadgesConfig returns sensible defaults.
func DefaultRefreshBadgesConfig() RefreshBadgesConfig {
	return RefreshBadgesConfig{
		Name:          "refresh_badges",
		WarmDashboard: true,
		Timeout:       30 * time.Second,
	}
}

// RefreshStats contains statistics from one run.
type RefreshStats struct {
	StartedAt     time.Time
	Duration      time.Duration
	NewlyUnlocked []string
	TotalHours    float64
	Warmed        bool
}

// NewRefreshBadgesJob creates the job. dashboard may be nil.
func NewRefreshBadgesJob(
	badges BadgeRefresher,
	dashboard DashboardBuilder,
	logger *slog.Logger,
	config RefreshBadgesConfig,
) *RefreshBadgesJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Name == "" {
		config.Name = DefaultRefreshBadgesConfig().Name
	}

	return &RefreshBadgesJob{
		name:      config.Name,
		badges:    badges,
		dashboard: dashboard,
		logger:    logger.With("job", config.Name),
		clock:     time.Now,
		config:    config,
	}
}

// WithClock overrides the evaluation clock.
func (j *RefreshBadgesJob) WithClock(clock func() time.Time) *RefreshBadgesJob {
	j.clock = clock
	return j
}

func (j *RefreshBadgesJob) Name() string { return j.name }

func (j *RefreshBadgesJob) Description() string {
	return "Re-evaluates achievement badges and warms the dashboard cache"
}

// Run executes one refresh.
func (j *RefreshBadgesJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	now := j.clock()
	correlationID := uuid.NewString()
	stats := &RefreshStats{StartedAt: now}

	result, err := j.badges.Handle(ctx, command.RefreshBadgesCommand{
		Now:           now,
		CorrelationID: correlationID,
	})
	if err != nil {
		return fmt.Errorf("refresh badges: %w", err)
	}

	for _, b := range result.NewlyUnlocked {
		stats.NewlyUnlocked = append(stats.NewlyUnlocked, b.ID)
	}
	stats.TotalHours = result.Stats.TotalHours

	if j.config.WarmDashboard && j.dashboard != nil {
		q := j.config.DashboardQuery
		q.Now = now
		if _, err := j.dashboard.Handle(ctx, q); err != nil {
			j.logger.Warn("dashboard warm-up failed", "error", err, "correlation_id", correlationID)
		} else {
			stats.Warmed = true
		}
	}

	stats.Duration = time.Since(now)
	j.lastStats.Store(stats)

	j.logger.Info("badges refreshed",
		"correlation_id", correlationID,
		"newly_unlocked", stats.NewlyUnlocked,
		"total_hours", stats.TotalHours,
		"warmed", stats.Warmed,
	)

	return nil
}

// LastStats returns the statistics of the last successful run.
func (j *RefreshBadgesJob) LastStats() *RefreshStats {
	stats, _ := j.lastStats.Load().(*RefreshStats)
	return stats
}
