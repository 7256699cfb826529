package badge

import (
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics - агрегированная статистика, по которой оцениваются правила.
type Metrics struct {
	TotalGoalsCompleted     int
	TotalHoursLogged        float64
	CurrentStreak           int
	LongestStreak           int
	MonthlyGoalsAllComplete bool
}

// MetricSelector выбирает метрику, с которой сравнивается порог.
type MetricSelector string

const (
	MetricGoalsCompleted        MetricSelector = "goals_completed"
	MetricHoursLogged           MetricSelector = "hours_logged"
	MetricCurrentStreak         MetricSelector = "current_streak"
	MetricLongestStreak         MetricSelector = "longest_streak"
	MetricMonthlyGoalsCompleted MetricSelector = "monthly_goals_completed"
)

// IsValid проверяет, что селектор известен.
func (s MetricSelector) IsValid() bool {
	switch s {
	case MetricGoalsCompleted, MetricHoursLogged, MetricCurrentStreak,
		MetricLongestStreak, MetricMonthlyGoalsCompleted:
		return true
	default:
		return false
	}
}

// Value возвращает значение выбранной метрики. Флаг даёт 0 или 1.
func (s MetricSelector) Value(m Metrics) float64 {
	switch s {
	case MetricGoalsCompleted:
		return float64(m.TotalGoalsCompleted)
	case MetricHoursLogged:
		return m.TotalHoursLogged
	case MetricCurrentStreak:
		return float64(m.CurrentStreak)
	case MetricLongestStreak:
		return float64(m.LongestStreak)
	case MetricMonthlyGoalsCompleted:
		if m.MonthlyGoalsAllComplete {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RULES
// ══════════════════════════════════════════════════════════════════════════════

// ThresholdKind - вид порога. Определяет единицу измерения по умолчанию.
type ThresholdKind string

const (
	KindGoals     ThresholdKind = "goals"
	KindHours     ThresholdKind = "hours"
	KindDays      ThresholdKind = "days"
	KindMilestone ThresholdKind = "milestone"
)

// IsValid проверяет, что вид порога известен.
func (k ThresholdKind) IsValid() bool {
	switch k {
	case KindGoals, KindHours, KindDays, KindMilestone:
		return true
	default:
		return false
	}
}

// Rule - правило разблокировки: метрика >= порога.
type Rule struct {
	ID          string
	Title       string
	Description string
	Kind        ThresholdKind
	Threshold   int
	Metric      MetricSelector

	// Unit переопределяет единицу из Kind.
	Unit string

	// RequirementLabel переопределяет строку требования целиком.
	RequirementLabel string
}

// Requirement возвращает строку требования для отображения.
func (r Rule) Requirement() string {
	if r.RequirementLabel != "" {
		return r.RequirementLabel
	}

	unit := r.Unit
	if unit == "" && r.Kind != KindMilestone {
		unit = string(r.Kind)
	}
	if unit == "" {
		return fmt.Sprintf("%d", r.Threshold)
	}
	if r.Threshold == 1 {
		unit = strings.TrimSuffix(unit, "s")
	}
	return fmt.Sprintf("%d %s", r.Threshold, unit)
}

// Validate проверяет корректность правила.
func (r Rule) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("badge rule: id is required")
	case !r.Kind.IsValid():
		return fmt.Errorf("badge rule %s: unknown kind %q", r.ID, r.Kind)
	case !r.Metric.IsValid():
		return fmt.Errorf("badge rule %s: unknown metric %q", r.ID, r.Metric)
	case r.Threshold <= 0:
		return fmt.Errorf("badge rule %s: threshold must be positive", r.ID)
	}
	return nil
}

// DefaultRules возвращает стандартный набор из девяти достижений.
// Серийные бейджи считаются по лучшей серии, чтобы прерванная серия
// не откатывала прогресс.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "first-steps", Title: "First Steps", Description: "Complete your first learning goal",
			Kind: KindGoals, Threshold: 1, Metric: MetricGoalsCompleted},
		{ID: "week-warrior", Title: "Week Warrior", Description: "Learn for 7 consecutive days",
			Kind: KindDays, Threshold: 7, Metric: MetricLongestStreak},
		{ID: "knowledge-seeker", Title: "Knowledge Seeker", Description: "Complete 5 learning goals",
			Kind: KindGoals, Threshold: 5, Metric: MetricGoalsCompleted},
		{ID: "time-master", Title: "Time Master", Description: "Log 50 hours of learning",
			Kind: KindHours, Threshold: 50, Metric: MetricHoursLogged},
		{ID: "streak-master", Title: "Streak Master", Description: "Maintain a 30-day learning streak",
			Kind: KindDays, Threshold: 30, Metric: MetricLongestStreak},
		{ID: "goal-crusher", Title: "Goal Crusher", Description: "Complete 10 learning goals",
			Kind: KindGoals, Threshold: 10, Metric: MetricGoalsCompleted},
		{ID: "century-club", Title: "Century Club", Description: "Log 100 hours of learning",
			Kind: KindHours, Threshold: 100, Metric: MetricHoursLogged},
		{ID: "monthly-champion", Title: "Monthly Champion", Description: "Complete all goals in a month",
			Kind: KindMilestone, Threshold: 1, Metric: MetricMonthlyGoalsCompleted,
			RequirementLabel: "Complete monthly goals"},
		{ID: "learning-legend", Title: "Learning Legend", Description: "Maintain a 100-day streak",
			Kind: KindDays, Threshold: 100, Metric: MetricLongestStreak},
	}
}
