package badge

import (
	"math"
	"time"
)

// Evaluate - чистая функция перехода (old, rule, metrics, now) -> new.
//
// Открытый бейдж возвращается без изменений: повторная оценка никогда не
// закрывает его и не сдвигает UnlockedDate. Закрытый бейдж открывается, если
// метрика >= порога, иначе Progress = метрика, ограниченная [0, порог].
func Evaluate(old Badge, rule Rule, m Metrics, now time.Time) Badge {
	if old.Unlocked {
		return old.Clone()
	}

	b := Badge{
		ID:          rule.ID,
		Title:       rule.Title,
		Description: rule.Description,
		Requirement: rule.Requirement(),
	}

	value := rule.Metric.Value(m)
	if value >= float64(rule.Threshold) {
		unlockedAt := now
		b.Unlocked = true
		b.UnlockedDate = &unlockedAt
		return b
	}

	progress := clamp(int(math.Floor(value)), 0, rule.Threshold)
	b.Progress = &progress
	return b
}

// EvaluateAll оценивает все правила в их порядке. Бейджи, для которых
// ещё нет записи, создаются из правил. Бейджи без правила остаются
// в конце без изменений.
func EvaluateAll(existing []Badge, rules []Rule, m Metrics, now time.Time) []Badge {
	byID := make(map[string]Badge, len(existing))
	for _, b := range existing {
		byID[b.ID] = b
	}

	result := make([]Badge, 0, len(rules)+len(existing))
	known := make(map[string]bool, len(rules))
	for _, rule := range rules {
		known[rule.ID] = true
		result = append(result, Evaluate(byID[rule.ID], rule, m, now))
	}

	for _, b := range existing {
		if !known[b.ID] {
			result = append(result, b.Clone())
		}
	}
	return result
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Preview показывает бейджи как они сохранены: открытые проходят без
// изменений, для закрытых и отсутствующих пересчитывается только Progress.
// Preview никогда не открывает бейдж и не ставит UnlockedDate, это делает
// только сохраняющий пересчёт через EvaluateAll.
func Preview(existing []Badge, rules []Rule, m Metrics) []Badge {
	byID := make(map[string]Badge, len(existing))
	for _, b := range existing {
		byID[b.ID] = b
	}

	result := make([]Badge, 0, len(rules)+len(existing))
	known := make(map[string]bool, len(rules))
	for _, rule := range rules {
		known[rule.ID] = true
		if old, ok := byID[rule.ID]; ok && old.Unlocked {
			result = append(result, old.Clone())
			continue
		}
		progress := clamp(int(math.Floor(rule.Metric.Value(m))), 0, rule.Threshold)
		result = append(result, Badge{
			ID:          rule.ID,
			Title:       rule.Title,
			Description: rule.Description,
			Requirement: rule.Requirement(),
			Progress:    &progress,
		})
	}

	for _, b := range existing {
		if !known[b.ID] {
			result = append(result, b.Clone())
		}
	}
	return result
}
