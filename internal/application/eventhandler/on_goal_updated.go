package eventhandler

import (
	"log/slog"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// OnGoalUpdatedHandler отмечает завершение целей.
type OnGoalUpdatedHandler struct {
	logger *slog.Logger
}

// NewOnGoalUpdatedHandler создаёт обработчик.
func NewOnGoalUpdatedHandler(logger *slog.Logger) *OnGoalUpdatedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnGoalUpdatedHandler{logger: logger.With("handler", "on_goal_updated")}
}

// Handle реализует shared.EventHandler.
func (h *OnGoalUpdatedHandler) Handle(event shared.Event) error {
	updated, ok := event.(shared.GoalUpdatedEvent)
	if !ok {
		return nil
	}

	if updated.Completed() {
		h.logger.Info("goal completed",
			"goal_id", updated.AggregateID(),
			"progress", updated.NewProgress,
		)
		return nil
	}

	h.logger.Debug("goal updated",
		"goal_id", updated.AggregateID(),
		"progress", updated.OldProgress,
		"new_progress", updated.NewProgress,
		"status", updated.NewStatus,
	)
	return nil
}
