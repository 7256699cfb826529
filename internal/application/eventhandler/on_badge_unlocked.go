// Package eventhandler содержит обработчики доменных событий трекера.
package eventhandler

import (
	"log/slog"
	"sync"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON BADGE UNLOCKED HANDLER
// Сообщает о новом достижении. Событие публикуется один раз на переход
// locked → unlocked, поэтому повторов здесь не бывает.
// ═══════════════════════════════════════════════════════════════════════════

// OnBadgeUnlockedHandler обрабатывает badge.unlocked.
type OnBadgeUnlockedHandler struct {
	logger *slog.Logger

	mu       sync.Mutex
	unlocked []string
}

// NewOnBadgeUnlockedHandler создаёт обработчик.
func NewOnBadgeUnlockedHandler(logger *slog.Logger) *OnBadgeUnlockedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnBadgeUnlockedHandler{logger: logger.With("handler", "on_badge_unlocked")}
}

// Handle реализует shared.EventHandler.
func (h *OnBadgeUnlockedHandler) Handle(event shared.Event) error {
	unlocked, ok := event.(shared.BadgeUnlockedEvent)
	if !ok {
		h.logger.Warn("received non-BadgeUnlockedEvent", "event_type", event.EventType())
		return nil
	}

	h.mu.Lock()
	h.unlocked = append(h.unlocked, unlocked.AggregateID())
	h.mu.Unlock()

	h.logger.Info("badge unlocked",
		"badge_id", unlocked.AggregateID(),
		"title", unlocked.Title,
		"requirement", unlocked.Requirement,
		"correlation_id", unlocked.Correlation(),
	)
	return nil
}

// Unlocked возвращает id достижений, разблокированных за время жизни процесса.
func (h *OnBadgeUnlockedHandler) Unlocked() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.unlocked...)
}
