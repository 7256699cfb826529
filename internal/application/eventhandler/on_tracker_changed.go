package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// DashboardInvalidator drops cached dashboards.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

// OnTrackerChangedHandler invalidates the dashboard cache after any write.
// Cache keys carry the snapshot fingerprint, so this only frees memory early;
// a failure is returned for the bus to log and never blocks the write.
type OnTrackerChangedHandler struct {
	cache   DashboardInvalidator
	timeout time.Duration
	logger  *slog.Logger
}

// NewOnTrackerChangedHandler creates the handler. timeout <= 0 means 2s.
func NewOnTrackerChangedHandler(cache DashboardInvalidator, timeout time.Duration, logger *slog.Logger) *OnTrackerChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &OnTrackerChangedHandler{
		cache:   cache,
		timeout: timeout,
		logger:  logger.With("handler", "on_tracker_changed"),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnTrackerChangedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	removed, err := h.cache.Invalidate(ctx)
	if err != nil {
		return fmt.Errorf("invalidate dashboard cache after %s: %w", event.EventType(), err)
	}

	h.logger.Debug("dashboard cache invalidated",
		"event_type", event.EventType(),
		"removed", removed,
	)
	return nil
}
