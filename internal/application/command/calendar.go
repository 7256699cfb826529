package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/internal/store"
	"github.com/studylog/learning-tracker/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE EVENT COMMAND
// Добавляет событие в календарь. Учебные сессии и встречи не могут
// пересекаться; дедлайны совместимы с чем угодно.
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleEventCommand содержит данные события.
type ScheduleEventCommand struct {
	Title   string
	Type    calendar.Type
	Start   time.Time
	End     time.Time
	GoalID  uuid.UUID
	GoalRef string
	Notes   string

	Now           time.Time
	CorrelationID string
}

// ScheduleEventResult содержит принятое событие.
type ScheduleEventResult struct {
	Event  calendar.Event
	Events []shared.Event
}

// ScheduleEventHandler обрабатывает ScheduleEventCommand.
type ScheduleEventHandler struct {
	deps Dependencies
}

// NewScheduleEventHandler создаёт обработчик.
func NewScheduleEventHandler(deps Dependencies) *ScheduleEventHandler {
	return &ScheduleEventHandler{deps: deps.withDefaults()}
}

// Handle проверяет и сохраняет событие. При конфликте возвращается
// *calendar.ConflictError (errors.Is(err, shared.ErrSchedulingConflict)).
func (h *ScheduleEventHandler) Handle(ctx context.Context, cmd ScheduleEventCommand) (*ScheduleEventResult, error) {
	log := h.deps.logFor("ScheduleEvent", cmd.CorrelationID)
	now := h.deps.now(cmd.Now)

	ref := cmd.GoalRef
	if cmd.GoalID != uuid.Nil {
		g, err := h.deps.Store.Goal(cmd.GoalID)
		if err != nil {
			return nil, fmt.Errorf("schedule_event: %w", err)
		}
		ref = g.Label()
	}

	candidate, err := calendar.NewEvent(calendar.NewEventParams{
		Title:   cmd.Title,
		Start:   cmd.Start,
		End:     cmd.End,
		Type:    cmd.Type,
		GoalID:  cmd.GoalID,
		GoalRef: ref,
		Notes:   cmd.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule_event: validation failed: %w", err)
	}

	accepted, err := h.deps.Store.ScheduleEvent(candidate)
	if err != nil {
		if shared.IsSchedulingConflict(err) {
			log.Info("session rejected", logger.Err(err))
		}
		return nil, fmt.Errorf("schedule_event: %w", err)
	}
	if err := h.deps.persist(ctx, func(repo store.Repository) error {
		return repo.SaveEvent(ctx, accepted)
	}); err != nil {
		_, _ = h.deps.Store.DeleteEvent(accepted.ID)
		return nil, fmt.Errorf("schedule_event: failed to save event: %w", err)
	}

	event := shared.NewSessionScheduledEvent(
		accepted.ID.String(), accepted.Title, string(accepted.Type),
		accepted.Start, accepted.End, now,
	)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(log, event)

	log.Info("session scheduled",
		logger.EventID(accepted.ID),
		logger.String("type", string(accepted.Type)),
		logger.Time("start", accepted.Start),
	)

	return &ScheduleEventResult{Event: accepted, Events: []shared.Event{event}}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE EVENT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteEventCommand удаляет событие календаря.
type DeleteEventCommand struct {
	EventID       uuid.UUID
	Now           time.Time
	CorrelationID string
}

// DeleteEventHandler обрабатывает DeleteEventCommand.
type DeleteEventHandler struct {
	deps Dependencies
}

// NewDeleteEventHandler создаёт обработчик.
func NewDeleteEventHandler(deps Dependencies) *DeleteEventHandler {
	return &DeleteEventHandler{deps: deps.withDefaults()}
}

// Handle удаляет событие.
func (h *DeleteEventHandler) Handle(ctx context.Context, cmd DeleteEventCommand) (*calendar.Event, error) {
	if cmd.EventID == uuid.Nil {
		return nil, fmt.Errorf("delete_event: %w", shared.ErrInvalidID)
	}

	log := h.deps.logFor("DeleteEvent", cmd.CorrelationID).With(logger.EventID(cmd.EventID))
	now := h.deps.now(cmd.Now)

	removed, err := h.deps.Store.DeleteEvent(cmd.EventID)
	if err != nil {
		return nil, fmt.Errorf("delete_event: %w", err)
	}
	if err := h.deps.persist(ctx, func(repo store.Repository) error {
		return repo.DeleteEvent(ctx, cmd.EventID)
	}); err != nil {
		_ = h.deps.Store.AddEvent(removed)
		return nil, fmt.Errorf("delete_event: failed to delete event: %w", err)
	}

	event := shared.NewSessionDeletedEvent(removed.ID.String(), removed.Title, now)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(log, event)

	log.Info("session deleted")

	return &removed, nil
}
