package analytics

import (
	"time"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

// StatsInput is one read-only snapshot plus the evaluation context.
type StatsInput struct {
	Goals   []goal.Goal
	Entries []progress.Entry
	Now     time.Time
	Zone    timeutil.Zone
}

// Stats are the aggregate numbers behind the dashboard cards and badges.
type Stats struct {
	TotalGoals     int `json:"total_goals"`
	CompletedGoals int `json:"completed_goals"`
	ActiveGoals    int `json:"active_goals"`
	PausedGoals    int `json:"paused_goals"`
	CompletionRate int `json:"completion_rate"`

	TotalHours         float64 `json:"total_hours"`
	HoursThisWeek      float64 `json:"hours_this_week"`
	HoursLastWeek      float64 `json:"hours_last_week"`
	WeekOverWeekChange int     `json:"week_over_week_change"`

	HoursThisMonth       float64 `json:"hours_this_month"`
	HoursLastMonth       float64 `json:"hours_last_month"`
	MonthOverMonthChange int     `json:"month_over_month_change"`

	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	LastActiveDay string `json:"last_active_day,omitempty"`

	MonthlyGoalsAllComplete bool `json:"monthly_goals_all_complete"`
}

// BuildStats computes the aggregate statistics for a snapshot.
func BuildStats(in StatsInput) Stats {
	zone := in.Zone
	counts := goal.CountByStatus(in.Goals)

	thisWeek := shared.DateRange{From: zone.StartOfWeek(in.Now), To: zone.EndOfWeek(in.Now)}
	lastWeekDay := zone.StartOfWeek(in.Now).AddDate(0, 0, -7)
	lastWeek := shared.DateRange{From: lastWeekDay, To: zone.EndOfWeek(lastWeekDay)}

	thisMonth := shared.DateRange{From: zone.StartOfMonth(in.Now), To: zone.EndOfMonth(in.Now)}
	lastMonthDay := zone.StartOfMonth(in.Now).AddDate(0, -1, 0)
	lastMonth := shared.DateRange{From: lastMonthDay, To: zone.EndOfMonth(lastMonthDay)}

	streak := StreakFromEntries(in.Entries, in.Now, zone)

	s := Stats{
		TotalGoals:     len(in.Goals),
		CompletedGoals: counts[goal.StatusCompleted],
		ActiveGoals:    counts[goal.StatusActive],
		PausedGoals:    counts[goal.StatusPaused],
		CompletionRate: shared.PercentOf(float64(counts[goal.StatusCompleted]), float64(len(in.Goals))),

		TotalHours:    TotalHours(in.Entries),
		HoursThisWeek: HoursInRange(in.Entries, zone, thisWeek),
		HoursLastWeek: HoursInRange(in.Entries, zone, lastWeek),

		HoursThisMonth: HoursInRange(in.Entries, zone, thisMonth),
		HoursLastMonth: HoursInRange(in.Entries, zone, lastMonth),

		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
		LastActiveDay: streak.LastActiveDay,

		MonthlyGoalsAllComplete: MonthlyGoalsAllComplete(in.Goals, in.Now, zone),
	}
	s.WeekOverWeekChange = PeriodChange(s.HoursThisWeek, s.HoursLastWeek)
	s.MonthOverMonthChange = PeriodChange(s.HoursThisMonth, s.HoursLastMonth)
	return s
}

// BadgeMetrics projects the statistics onto the badge evaluator's input.
func (s Stats) BadgeMetrics() badge.Metrics {
	return badge.Metrics{
		TotalGoalsCompleted:     s.CompletedGoals,
		TotalHoursLogged:        s.TotalHours,
		CurrentStreak:           s.CurrentStreak,
		LongestStreak:           s.LongestStreak,
		MonthlyGoalsAllComplete: s.MonthlyGoalsAllComplete,
	}
}

// MonthlyGoalsAllComplete reports whether some month up to and including
// the evaluation month had at least one goal due and every goal due in it
// is completed.
func MonthlyGoalsAllComplete(goals []goal.Goal, now time.Time, zone timeutil.Zone) bool {
	type tally struct{ due, done int }

	current := zone.MonthKey(now)
	months := make(map[string]*tally)
	for _, g := range goals {
		if !g.HasDueDate() {
			continue
		}
		key := zone.MonthKey(g.DueDate)
		if key > current {
			continue
		}
		t, ok := months[key]
		if !ok {
			t = &tally{}
			months[key] = t
		}
		t.due++
		if g.IsCompleted() {
			t.done++
		}
	}

	for _, t := range months {
		if t.due > 0 && t.done == t.due {
			return true
		}
	}
	return false
}

// GoalsCompletedByMonth counts completed goals per due month (YYYY-MM).
// Goals without a due date are not counted.
func GoalsCompletedByMonth(goals []goal.Goal, zone timeutil.Zone) map[string]int {
	counts := make(map[string]int)
	for _, g := range goals {
		if g.IsCompleted() && g.HasDueDate() {
			counts[zone.MonthKey(g.DueDate)]++
		}
	}
	return counts
}
