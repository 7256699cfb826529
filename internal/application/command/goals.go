package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/internal/store"
	"github.com/studylog/learning-tracker/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE GOAL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateGoalCommand содержит данные новой цели.
type CreateGoalCommand struct {
	Title       string
	Description string
	Category    string

	// DueDate - срок (пустой = без срока).
	DueDate time.Time

	// Now - момент создания (пустой = часы обработчика).
	Now time.Time

	// CorrelationID для трассировки.
	CorrelationID string
}

// CreateGoalResult содержит созданную цель.
type CreateGoalResult struct {
	Goal   goal.Goal
	Events []shared.Event
}

// CreateGoalHandler обрабатывает CreateGoalCommand.
type CreateGoalHandler struct {
	deps Dependencies
}

// NewCreateGoalHandler создаёт обработчик.
func NewCreateGoalHandler(deps Dependencies) *CreateGoalHandler {
	return &CreateGoalHandler{deps: deps.withDefaults()}
}

// Handle создаёт цель.
func (h *CreateGoalHandler) Handle(ctx context.Context, cmd CreateGoalCommand) (*CreateGoalResult, error) {
	log := h.deps.logFor("CreateGoal", cmd.CorrelationID)
	now := h.deps.now(cmd.Now)

	g, err := goal.New(goal.NewGoalParams{
		Title:       cmd.Title,
		Description: cmd.Description,
		DueDate:     cmd.DueDate,
		Category:    cmd.Category,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("create_goal: validation failed: %w", err)
	}

	if err := h.deps.Store.AddGoal(*g); err != nil {
		return nil, fmt.Errorf("create_goal: %w", err)
	}
	if err := h.deps.persist(ctx, func(repo store.Repository) error {
		return repo.SaveGoal(ctx, *g)
	}); err != nil {
		_, _ = h.deps.Store.DeleteGoal(g.ID)
		return nil, fmt.Errorf("create_goal: failed to save goal: %w", err)
	}

	event := shared.NewGoalCreatedEvent(g.ID.String(), g.Title, g.Category, now)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(log, event)

	log.Info("goal created", logger.GoalID(g.ID), logger.String("title", g.Title))

	return &CreateGoalResult{Goal: *g, Events: []shared.Event{event}}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE GOAL COMMAND
// Меняет прогресс и/или статус. Согласованность completed ⇔ 100%
// не навязывается.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateGoalCommand содержит изменения цели. Nil-поля не меняются.
type UpdateGoalCommand struct {
	GoalID   uuid.UUID
	Progress *int
	Status   *goal.Status

	Now           time.Time
	CorrelationID string
}

// Validate проверяет команду.
func (c UpdateGoalCommand) Validate() error {
	if c.GoalID == uuid.Nil {
		return shared.ErrInvalidID
	}
	if c.Progress == nil && c.Status == nil {
		return errors.New("update_goal: nothing to update")
	}
	return nil
}

// UpdateGoalResult содержит цель после изменения.
type UpdateGoalResult struct {
	Goal     goal.Goal
	Previous goal.Goal

	// Completed - цель перешла в статус completed этим изменением.
	Completed bool

	Events []shared.Event
}

// UpdateGoalHandler обрабатывает UpdateGoalCommand.
type UpdateGoalHandler struct {
	deps   Dependencies
	badges *RefreshBadgesHandler
}

// NewUpdateGoalHandler создаёт обработчик. badges может быть nil.
func NewUpdateGoalHandler(deps Dependencies, badges *RefreshBadgesHandler) *UpdateGoalHandler {
	return &UpdateGoalHandler{deps: deps.withDefaults(), badges: badges}
}

// Handle применяет изменения.
func (h *UpdateGoalHandler) Handle(ctx context.Context, cmd UpdateGoalCommand) (*UpdateGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_goal: validation failed: %w", err)
	}

	log := h.deps.logFor("UpdateGoal", cmd.CorrelationID).With(logger.GoalID(cmd.GoalID))
	now := h.deps.now(cmd.Now)

	previous, err := h.deps.Store.Goal(cmd.GoalID)
	if err != nil {
		return nil, fmt.Errorf("update_goal: %w", err)
	}

	updated := previous
	if cmd.Progress != nil {
		if err := updated.UpdateProgress(*cmd.Progress); err != nil {
			return nil, fmt.Errorf("update_goal: %w", err)
		}
	}
	if cmd.Status != nil {
		if err := updated.SetStatus(*cmd.Status); err != nil {
			return nil, fmt.Errorf("update_goal: %w", err)
		}
	}

	if err := h.deps.Store.UpdateGoal(updated); err != nil {
		return nil, fmt.Errorf("update_goal: %w", err)
	}
	if err := h.deps.persist(ctx, func(repo store.Repository) error {
		return repo.SaveGoal(ctx, updated)
	}); err != nil {
		_ = h.deps.Store.UpdateGoal(previous)
		return nil, fmt.Errorf("update_goal: failed to save goal: %w", err)
	}

	event := shared.NewGoalUpdatedEvent(
		updated.ID.String(),
		previous.Progress, updated.Progress,
		previous.Status.String(), updated.Status.String(),
		now,
	)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(log, event)

	log.Info("goal updated",
		logger.Int("progress", updated.Progress),
		logger.String("status", updated.Status.String()),
	)

	refresh(ctx, h.badges, log, now, cmd.CorrelationID)

	return &UpdateGoalResult{
		Goal:      updated,
		Previous:  previous,
		Completed: event.Completed(),
		Events:    []shared.Event{event},
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE GOAL COMMAND
// Записи прогресса удалённой цели остаются: они показываются под
// сохранённой в записи меткой.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteGoalCommand удаляет цель.
type DeleteGoalCommand struct {
	GoalID        uuid.UUID
	Now           time.Time
	CorrelationID string
}

// DeleteGoalHandler обрабатывает DeleteGoalCommand.
type DeleteGoalHandler struct {
	deps   Dependencies
	badges *RefreshBadgesHandler
}

// NewDeleteGoalHandler создаёт обработчик. badges может быть nil.
func NewDeleteGoalHandler(deps Dependencies, badges *RefreshBadgesHandler) *DeleteGoalHandler {
	return &DeleteGoalHandler{deps: deps.withDefaults(), badges: badges}
}

// Handle удаляет цель и возвращает её последнее состояние.
func (h *DeleteGoalHandler) Handle(ctx context.Context, cmd DeleteGoalCommand) (*goal.Goal, error) {
	if cmd.GoalID == uuid.Nil {
		return nil, fmt.Errorf("delete_goal: %w", shared.ErrInvalidID)
	}

	log := h.deps.logFor("DeleteGoal", cmd.CorrelationID).With(logger.GoalID(cmd.GoalID))
	now := h.deps.now(cmd.Now)

	removed, err := h.deps.Store.DeleteGoal(cmd.GoalID)
	if err != nil {
		return nil, fmt.Errorf("delete_goal: %w", err)
	}
	if err := h.deps.persist(ctx, func(repo store.Repository) error {
		return repo.DeleteGoal(ctx, cmd.GoalID)
	}); err != nil {
		_ = h.deps.Store.AddGoal(removed)
		return nil, fmt.Errorf("delete_goal: failed to delete goal: %w", err)
	}

	event := shared.NewGoalDeletedEvent(removed.ID.String(), removed.Title, now)
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	h.deps.publish(log, event)

	log.Info("goal deleted")

	refresh(ctx, h.badges, log, now, cmd.CorrelationID)

	return &removed, nil
}
