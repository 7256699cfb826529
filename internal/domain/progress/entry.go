// Package progress содержит записи учебного времени.
// Запись неизменяема: её можно только добавить или удалить.
package progress

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// Entry - одна запись о потраченном на цель времени.
type Entry struct {
	// ID - идентификатор записи.
	ID uuid.UUID

	// Date - календарный день, к которому относится запись.
	// Несколько записей могут приходиться на один день.
	Date time.Time

	// GoalID - стабильная ссылка на цель.
	GoalID uuid.UUID

	// GoalRef - метка цели на момент записи. Используется, только если
	// GoalID пустой (старые записи) или цель уже удалена.
	GoalRef string

	// Hours - потраченное время в часах (>= 0).
	Hours float64

	// Notes - заметки.
	Notes string
}

// NewEntryParams содержит параметры для создания записи.
type NewEntryParams struct {
	ID      uuid.UUID
	Date    time.Time
	GoalID  uuid.UUID
	GoalRef string
	Hours   float64
	Notes   string
}

// NewEntry создаёт запись с валидацией.
func NewEntry(params NewEntryParams) (Entry, error) {
	if params.Date.IsZero() {
		return Entry{}, shared.ErrEntryDateRequired
	}

	ref := strings.TrimSpace(params.GoalRef)
	if params.GoalID == uuid.Nil && ref == "" {
		return Entry{}, shared.ErrEntryGoalRequired
	}

	if _, err := shared.NewHours(params.Hours); err != nil {
		return Entry{}, shared.ErrNegativeEntryHours
	}

	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return Entry{
		ID:      id,
		Date:    params.Date,
		GoalID:  params.GoalID,
		GoalRef: ref,
		Hours:   params.Hours,
		Notes:   strings.TrimSpace(params.Notes),
	}, nil
}

// HasGoalID возвращает true, если запись ссылается на цель по ID.
func (e Entry) HasGoalID() bool {
	return e.GoalID != uuid.Nil
}

// GroupKey возвращает ключ группировки по цели: ID, если он есть,
// иначе метку.
func (e Entry) GroupKey() string {
	if e.HasGoalID() {
		return e.GoalID.String()
	}
	return "ref:" + e.GoalRef
}

// Dates возвращает даты всех записей (для расчёта серий).
func Dates(entries []Entry) []time.Time {
	dates := make([]time.Time, len(entries))
	for i, e := range entries {
		dates[i] = e.Date
	}
	return dates
}

// ForGoal возвращает записи, относящиеся к цели.
func ForGoal(entries []Entry, goalID uuid.UUID) []Entry {
	var result []Entry
	for _, e := range entries {
		if e.GoalID == goalID {
			result = append(result, e)
		}
	}
	return result
}
