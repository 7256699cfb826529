package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/studylog/learning-tracker/internal/domain/analytics"
	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/internal/store"
	"github.com/studylog/learning-tracker/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH BADGES COMMAND
// Пересчитывает достижения по текущему снимку данных.
// Разблокированные достижения не откатываются; для каждого нового
// публикуется badge.unlocked ровно один раз.
// ══════════════════════════════════════════════════════════════════════════════

// RefreshBadgesCommand запускает пересчёт достижений.
type RefreshBadgesCommand struct {
	// Now - момент оценки (пустой = часы обработчика).
	Now time.Time

	// CorrelationID для трассировки.
	CorrelationID string
}

// RefreshBadgesResult содержит результат пересчёта.
type RefreshBadgesResult struct {
	// Badges - полный список достижений в порядке правил.
	Badges []badge.Badge

	// NewlyUnlocked - достижения, разблокированные этим пересчётом.
	NewlyUnlocked []badge.Badge

	// Stats - статистика, на которой основана оценка.
	Stats analytics.Stats
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RefreshBadgesHandler обрабатывает RefreshBadgesCommand.
type RefreshBadgesHandler struct {
	deps  Dependencies
	rules []badge.Rule

	// mu сериализует цикл read-evaluate-replace.
	mu sync.Mutex
}

// NewRefreshBadgesHandler создаёт обработчик. Пустой rules означает
// badge.DefaultRules().
func NewRefreshBadgesHandler(deps Dependencies, rules []badge.Rule) *RefreshBadgesHandler {
	if len(rules) == 0 {
		rules = badge.DefaultRules()
	}
	return &RefreshBadgesHandler{
		deps:  deps.withDefaults(),
		rules: rules,
	}
}

// Handle выполняет пересчёт.
func (h *RefreshBadgesHandler) Handle(ctx context.Context, cmd RefreshBadgesCommand) (*RefreshBadgesResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := h.deps.logFor("RefreshBadges", cmd.CorrelationID)
	now := h.deps.now(cmd.Now)

	snap := h.deps.Store.Snapshot()
	stats := analytics.BuildStats(analytics.StatsInput{
		Goals:   snap.Goals,
		Entries: snap.Entries,
		Now:     now,
		Zone:    h.deps.Zone,
	})

	before := snap.Badges
	after := badge.EvaluateAll(before, h.rules, stats.BadgeMetrics(), now)
	unlocked := badge.NewlyUnlocked(before, after)

	if err := h.deps.persist(ctx, func(repo store.Repository) error {
		return repo.SaveBadges(ctx, after)
	}); err != nil {
		return nil, fmt.Errorf("refresh_badges: failed to save badges: %w", err)
	}
	h.deps.Store.ReplaceBadges(after)

	events := make([]shared.Event, 0, len(unlocked))
	for _, b := range unlocked {
		log.Info("badge unlocked", logger.BadgeID(b.ID), logger.String("title", b.Title))
		event := shared.NewBadgeUnlockedEvent(b.ID, b.Title, b.Requirement, now)
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		events = append(events, event)
	}
	h.deps.publish(log, events...)

	return &RefreshBadgesResult{
		Badges:        after,
		NewlyUnlocked: unlocked,
		Stats:         stats,
	}, nil
}
