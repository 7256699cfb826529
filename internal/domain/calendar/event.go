// Package calendar содержит события календаря (учебные сессии, встречи,
// дедлайны) и проверку их размещения во времени.
package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type - тип события календаря. Закрытое перечисление: ядро только хранит
// и сравнивает значение, отображение выбирает слой представления.
type Type string

const (
	// TypeStudy - учебная сессия.
	TypeStudy Type = "study"
	// TypeMeeting - встреча.
	TypeMeeting Type = "meeting"
	// TypeDeadline - дедлайн, точечная отметка.
	TypeDeadline Type = "deadline"
)

// IsValid проверяет, что тип корректен.
func (t Type) IsValid() bool {
	switch t {
	case TypeStudy, TypeMeeting, TypeDeadline:
		return true
	default:
		return false
	}
}

// IsExclusive возвращает true для типов, которые не могут пересекаться
// с другими эксклюзивными событиями. Дедлайны никогда не конфликтуют.
func (t Type) IsExclusive() bool {
	return t == TypeStudy || t == TypeMeeting
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: EVENT
// ══════════════════════════════════════════════════════════════════════════════

// Event - запланированное событие.
type Event struct {
	ID      uuid.UUID
	Title   string
	Start   time.Time
	End     time.Time
	Type    Type
	GoalID  uuid.UUID
	GoalRef string
	Notes   string
}

// NewEventParams содержит параметры для создания события.
type NewEventParams struct {
	ID      uuid.UUID
	Title   string
	Start   time.Time
	End     time.Time
	Type    Type
	GoalID  uuid.UUID
	GoalRef string
	Notes   string
}

// NewEvent создаёт событие. Порядок Start/End проверяет Validate.
func NewEvent(params NewEventParams) (Event, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return Event{}, shared.ErrEventTitleRequired
	}
	if !params.Type.IsValid() {
		return Event{}, shared.ErrInvalidEventType
	}

	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return Event{
		ID:      id,
		Title:   title,
		Start:   params.Start,
		End:     params.End,
		Type:    params.Type,
		GoalID:  params.GoalID,
		GoalRef: strings.TrimSpace(params.GoalRef),
		Notes:   strings.TrimSpace(params.Notes),
	}, nil
}

// Duration возвращает длительность события.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps проверяет пересечение интервалов [Start, End).
func (e Event) Overlaps(other Event) bool {
	return timeutil.RangesOverlap(e.Start, e.End, other.Start, other.End)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// SortByStart сортирует события по времени начала (стабильно).
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}

// Upcoming возвращает события, которые ещё не закончились к моменту now,
// отсортированные по началу. limit <= 0 означает без ограничения.
func Upcoming(events []Event, now time.Time, limit int) []Event {
	result := make([]Event, 0, len(events))
	for _, e := range events {
		if e.End.After(now) {
			result = append(result, e)
		}
	}
	SortByStart(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// OnDay возвращает события, пересекающие локальный день day.
func OnDay(events []Event, day time.Time, zone timeutil.Zone) []Event {
	from := zone.StartOfDay(day)
	to := zone.StartOfDay(from.AddDate(0, 0, 1))

	var result []Event
	for _, e := range events {
		if timeutil.RangesOverlap(e.Start, e.End, from, to) {
			result = append(result, e)
		}
	}
	SortByStart(result)
	return result
}
