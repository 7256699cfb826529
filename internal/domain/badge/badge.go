// Package badge содержит достижения (бейджи) и правила их разблокировки.
//
// Бейдж - производный объект: состояние unlocked и progress пересчитываются
// из агрегированной статистики при каждой оценке. Исключение - UnlockedDate:
// она фиксируется при первой разблокировке и больше не меняется.
package badge

import "time"

// Badge - достижение пользователя.
type Badge struct {
	// ID - стабильный идентификатор правила (например, "week-warrior").
	ID string

	// Title - название.
	Title string

	// Description - условие получения в свободной форме.
	Description string

	// Unlocked - получено ли достижение. Однонаправленная защёлка.
	Unlocked bool

	// Progress - текущее значение метрики, пока бейдж закрыт.
	Progress *int

	// Requirement - порог с единицей измерения ("30 days", "100 hours").
	Requirement string

	// UnlockedDate - момент первой разблокировки.
	UnlockedDate *time.Time
}

// Clone возвращает копию без общих указателей.
func (b Badge) Clone() Badge {
	if b.Progress != nil {
		p := *b.Progress
		b.Progress = &p
	}
	if b.UnlockedDate != nil {
		d := *b.UnlockedDate
		b.UnlockedDate = &d
	}
	return b
}

// ProgressValue возвращает прогресс или 0, если он не задан.
func (b Badge) ProgressValue() int {
	if b.Progress == nil {
		return 0
	}
	return *b.Progress
}

// CloneAll копирует срез бейджей.
func CloneAll(badges []Badge) []Badge {
	if badges == nil {
		return nil
	}
	out := make([]Badge, len(badges))
	for i, b := range badges {
		out[i] = b.Clone()
	}
	return out
}

// Unlocked возвращает полученные бейджи в исходном порядке.
func Unlocked(badges []Badge) []Badge {
	var result []Badge
	for _, b := range badges {
		if b.Unlocked {
			result = append(result, b)
		}
	}
	return result
}

// Locked возвращает ещё не полученные бейджи в исходном порядке.
func Locked(badges []Badge) []Badge {
	var result []Badge
	for _, b := range badges {
		if !b.Unlocked {
			result = append(result, b)
		}
	}
	return result
}

// NewlyUnlocked возвращает бейджи, открытые в after, но не в before.
func NewlyUnlocked(before, after []Badge) []Badge {
	wasUnlocked := make(map[string]bool, len(before))
	for _, b := range before {
		if b.Unlocked {
			wasUnlocked[b.ID] = true
		}
	}

	var result []Badge
	for _, b := range after {
		if b.Unlocked && !wasUnlocked[b.ID] {
			result = append(result, b)
		}
	}
	return result
}
