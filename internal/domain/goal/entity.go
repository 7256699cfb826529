// Package goal содержит доменную модель учебной цели.
// Цель - это то, к чему пользователь идёт: у неё есть прогресс (0-100),
// статус и срок. Пакет не зависит от инфраструктуры.
package goal

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущее состояние цели.
type Status string

const (
	// StatusActive - цель в работе.
	StatusActive Status = "active"
	// StatusCompleted - цель достигнута.
	StatusCompleted Status = "completed"
	// StatusPaused - цель отложена.
	StatusPaused Status = "paused"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusPaused:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: GOAL
// ══════════════════════════════════════════════════════════════════════════════

// Goal - учебная цель пользователя.
//
// Статус completed и прогресс 100 - это соглашение отображения, а не
// инвариант: они могут расходиться, пока пользователь не обновит второе поле.
type Goal struct {
	// ID - стабильный идентификатор. Записи прогресса и события календаря
	// ссылаются на цель по нему.
	ID uuid.UUID

	// Title - название цели, оно же метка в графиках.
	Title string

	// Description - свободное описание.
	Description string

	// Progress - процент выполнения (0-100).
	Progress int

	// Status - текущее состояние.
	Status Status

	// DueDate - срок (календарная дата, может быть пустой).
	DueDate time.Time

	// Category - категория (например, "Programming").
	Category string

	// CreatedAt - время создания.
	CreatedAt time.Time
}

// NewGoalParams содержит параметры для создания новой цели.
type NewGoalParams struct {
	ID          uuid.UUID
	Title       string
	Description string
	DueDate     time.Time
	Category    string
}

// New создаёт новую цель: прогресс 0, статус active.
// Если ID не передан, он генерируется.
func New(params NewGoalParams, now time.Time) (*Goal, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, shared.ErrGoalTitleRequired
	}

	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Goal{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Progress:    0,
		Status:      StatusActive,
		DueDate:     params.DueDate,
		Category:    strings.TrimSpace(params.Category),
		CreatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProgress устанавливает процент выполнения.
// Статус при этом не меняется.
func (g *Goal) UpdateProgress(progress int) error {
	p, err := shared.NewPercent(progress)
	if err != nil {
		return shared.ErrGoalProgressBounds
	}
	g.Progress = p.Int()
	return nil
}

// SetStatus явно меняет статус цели.
func (g *Goal) SetStatus(status Status) error {
	if !status.IsValid() {
		return shared.ErrInvalidGoalStatus
	}
	g.Status = status
	return nil
}

// IsCompleted возвращает true для завершённых целей.
func (g Goal) IsCompleted() bool {
	return g.Status == StatusCompleted
}

// HasDueDate возвращает true, если у цели есть срок.
func (g Goal) HasDueDate() bool {
	return !g.DueDate.IsZero()
}

// Label возвращает отображаемую метку цели.
func (g Goal) Label() string {
	return g.Title
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// CountByStatus считает цели по статусам.
func CountByStatus(goals []Goal) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, g := range goals {
		counts[g.Status]++
	}
	return counts
}

// Index строит карту ID -> цель.
func Index(goals []Goal) map[uuid.UUID]Goal {
	byID := make(map[uuid.UUID]Goal, len(goals))
	for _, g := range goals {
		byID[g.ID] = g
	}
	return byID
}
