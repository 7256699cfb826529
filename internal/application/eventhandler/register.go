package eventhandler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// Handlers collects the process-level subscribers.
type Handlers struct {
	BadgeUnlocked  *OnBadgeUnlockedHandler
	GoalUpdated    *OnGoalUpdatedHandler
	TrackerChanged *OnTrackerChangedHandler
}

// New creates all handlers. cache may be nil, then nothing is invalidated.
func New(cache DashboardInvalidator, logger *slog.Logger) *Handlers {
	h := &Handlers{
		BadgeUnlocked: NewOnBadgeUnlockedHandler(logger),
		GoalUpdated:   NewOnGoalUpdatedHandler(logger),
	}
	if cache != nil {
		h.TrackerChanged = NewOnTrackerChangedHandler(cache, 2*time.Second, logger)
	}
	return h
}

// Register subscribes the handlers on bus.
func (h *Handlers) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventBadgeUnlocked, h.BadgeUnlocked.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventBadgeUnlocked, err)
	}
	if err := bus.Subscribe(shared.EventGoalUpdated, h.GoalUpdated.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventGoalUpdated, err)
	}
	if h.TrackerChanged != nil {
		if err := bus.SubscribeAll(h.TrackerChanged.Handle); err != nil {
			return fmt.Errorf("subscribe all: %w", err)
		}
	}
	return nil
}
