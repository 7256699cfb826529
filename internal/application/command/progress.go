package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/internal/store"
	"github.com/studylog/learning-tracker/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG PROGRESS COMMAND
// Записывает потраченное на цель время. Метка цели сохраняется в записи
// на момент записи, но при чтении используется текущее название цели.
// ══════════════════════════════════════════════════════════════════════════════

// LogProgressCommand содержит данные записи.
type LogProgressCommand struct {
	// GoalID - цель. Должна существовать, если задана.
	GoalID uuid.UUID

	// GoalRef - метка цели для записей без GoalID.
	GoalRef string

	// Date - календарный день записи (пустой = сегодня).
	Date time.Time

	Hours float64
	Notes string

	Now           time.Time
	CorrelationID string
}

// LogProgressResult содержит созданную запись.
type LogProgressResult struct {
	Entry  progress.Entry
	Events []shared.Event
}

// LogProgressHandler обрабатывает LogProgressCommand.
type LogProgressHandler struct {
	deps   Dependencies
	badges *RefreshBadgesHandler
}

// NewLogProgressHandler создаёт обработчик. badges может быть nil.
func NewLogProgressHandler(deps Dependencies, badges *RefreshBadgesHandler) *LogProgressHandler {
	return &LogProgressHandler{deps: deps.withDefaults(), badges: badges}
}

// Handle записывает прогресс.
func (h *LogProgressHandler) Handle(ctx context.Context, cmd LogProgressCommand) (*LogProgressResult, error) {
	log := h.deps.logFor("LogProgress", cmd.CorrelationID)
	now := h.deps.now(cmd.Now)

	day := cmd.Date
	if day.IsZero() {
		day = h.deps.Zone.StartOfDay(now)
	}

	ref := cmd.GoalRef
	if cmd.GoalID != uuid.Nil {
		g, err := h.deps.Store.Goal(cmd.GoalID)
		if err != nil {
			return nil, fmt.Errorf("log_progress: %w", err)
		}
		ref = g.Label()
	}

	entry, err := progress.NewEntry(progress.NewEntryParams{
		Date:    day,
		GoalID:  cmd.GoalID,
		GoalRef: ref,
		Hours:   cmd.Hours,
		Notes:   cmd.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("log_progress: validation failed: %w", err)
	}

	if err := h.deps.Store.AddEntry(entry); err != nil {
		return nil, fmt.Errorf("log_progress: %w", err)
	}
	if err := h.deps.persist(ctx, func(repo store.Repository) error {
		return repo.SaveEntry(ctx, entry)
	}); err != nil {
		_, _ = h.deps.Store.DeleteEntry(entry.ID)
		return nil, fmt.Errorf("log_progress: failed to save entry: %w", err)
	}

	dayKey := h.deps.Zone.DayKey(entry.Date)
	event := shared.NewProgressLoggedEvent(entry.ID.String(), entry.GroupKey(), dayKey, entry.Hours, now)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(log, event)

	log.Info("progress logged", logger.EntryID(entry.ID), logger.Day(dayKey), logger.Hours(entry.Hours))

	refresh(ctx, h.badges, log, now, cmd.CorrelationID)

	return &LogProgressResult{Entry: entry, Events: []shared.Event{event}}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE PROGRESS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteProgressCommand удаляет запись прогресса.
type DeleteProgressCommand struct {
	EntryID       uuid.UUID
	Now           time.Time
	CorrelationID string
}

// DeleteProgressHandler обрабатывает DeleteProgressCommand.
type DeleteProgressHandler struct {
	deps   Dependencies
	badges *RefreshBadgesHandler
}

// NewDeleteProgressHandler создаёт обработчик. badges может быть nil.
func NewDeleteProgressHandler(deps Dependencies, badges *RefreshBadgesHandler) *DeleteProgressHandler {
	return &DeleteProgressHandler{deps: deps.withDefaults(), badges: badges}
}

// Handle удаляет запись. Разблокированные достижения остаются.
func (h *DeleteProgressHandler) Handle(ctx context.Context, cmd DeleteProgressCommand) (*progress.Entry, error) {
	if cmd.EntryID == uuid.Nil {
		return nil, fmt.Errorf("delete_progress: %w", shared.ErrInvalidID)
	}

	log := h.deps.logFor("DeleteProgress", cmd.CorrelationID).With(logger.EntryID(cmd.EntryID))
	now := h.deps.now(cmd.Now)

	removed, err := h.deps.Store.DeleteEntry(cmd.EntryID)
	if err != nil {
		return nil, fmt.Errorf("delete_progress: %w", err)
	}
	if err := h.deps.persist(ctx, func(repo store.Repository) error {
		return repo.DeleteEntry(ctx, cmd.EntryID)
	}); err != nil {
		_ = h.deps.Store.AddEntry(removed)
		return nil, fmt.Errorf("delete_progress: failed to delete entry: %w", err)
	}

	event := shared.NewProgressDeletedEvent(removed.ID.String(), removed.Hours, now)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(log, event)

	log.Info("progress deleted", logger.Hours(removed.Hours))

	refresh(ctx, h.badges, log, now, cmd.CorrelationID)

	return &removed, nil
}
