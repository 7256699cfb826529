package badge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 12, 2, 10, 0, 0, 0, time.UTC)
)

func ruleByID(t *testing.T, id string) Rule {
	t.Helper()
	for _, r := range DefaultRules() {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("rule %s not found", id)
	return Rule{}
}

func TestEvaluate_LockedReportsClampedProgress(t *testing.T) {
	rule := ruleByID(t, "century-club")

	b := Evaluate(Badge{}, rule, Metrics{TotalHoursLogged: 89.7}, day1)
	assert.False(t, b.Unlocked)
	require.NotNil(t, b.Progress)
	assert.Equal(t, 89, *b.Progress)
	assert.Nil(t, b.UnlockedDate)
	assert.Equal(t, "100 hours", b.Requirement)
	assert.Equal(t, "Century Club", b.Title)

	b = Evaluate(Badge{}, rule, Metrics{TotalHoursLogged: -3}, day1)
	assert.Equal(t, 0, b.ProgressValue())
}

func TestEvaluate_UnlocksAtThreshold(t *testing.T) {
	rule := ruleByID(t, "week-warrior")

	b := Evaluate(Badge{}, rule, Metrics{LongestStreak: 7}, day1)
	assert.True(t, b.Unlocked)
	require.NotNil(t, b.UnlockedDate)
	assert.Equal(t, day1, *b.UnlockedDate)
	assert.Nil(t, b.Progress)
}

func TestEvaluate_Idempotent(t *testing.T) {
	rules := DefaultRules()
	m := Metrics{TotalGoalsCompleted: 6, TotalHoursLogged: 60, CurrentStreak: 3, LongestStreak: 12}

	first := EvaluateAll(nil, rules, m, day1)
	second := EvaluateAll(first, rules, m, day2)
	assert.Equal(t, first, second)

	for _, b := range Unlocked(second) {
		assert.Equal(t, day1, *b.UnlockedDate, b.ID)
	}
}

func TestEvaluate_LatchNeverReverts(t *testing.T) {
	rule := ruleByID(t, "time-master")

	unlocked := Evaluate(Badge{}, rule, Metrics{TotalHoursLogged: 55}, day1)
	require.True(t, unlocked.Unlocked)

	// Hours dropped after an entry was deleted.
	again := Evaluate(unlocked, rule, Metrics{TotalHoursLogged: 10}, day2)
	assert.True(t, again.Unlocked)
	assert.Equal(t, day1, *again.UnlockedDate)
}

func TestEvaluate_DoesNotAliasInput(t *testing.T) {
	rule := ruleByID(t, "first-steps")
	old := Evaluate(Badge{}, rule, Metrics{TotalGoalsCompleted: 1}, day1)

	next := Evaluate(old, rule, Metrics{}, day2)
	*next.UnlockedDate = day2
	assert.Equal(t, day1, *old.UnlockedDate)
}

func TestEvaluateAll_Order(t *testing.T) {
	legacy := Badge{ID: "beta-tester", Title: "Beta Tester", Unlocked: true}
	rules := DefaultRules()

	got := EvaluateAll([]Badge{legacy}, rules, Metrics{}, day1)
	require.Len(t, got, len(rules)+1)
	for i, r := range rules {
		assert.Equal(t, r.ID, got[i].ID)
	}
	assert.Equal(t, legacy, got[len(got)-1])
	assert.Empty(t, Unlocked(got[:len(rules)]))
}

func TestMonthlyChampion(t *testing.T) {
	rule := ruleByID(t, "monthly-champion")

	b := Evaluate(Badge{}, rule, Metrics{}, day1)
	assert.False(t, b.Unlocked)
	assert.Equal(t, 0, b.ProgressValue())
	assert.Equal(t, "Complete monthly goals", b.Requirement)

	b = Evaluate(b, rule, Metrics{MonthlyGoalsAllComplete: true}, day2)
	assert.True(t, b.Unlocked)
}

func TestRequirement(t *testing.T) {
	assert.Equal(t, "1 goal", ruleByID(t, "first-steps").Requirement())
	assert.Equal(t, "10 goals", ruleByID(t, "goal-crusher").Requirement())
	assert.Equal(t, "30 days", ruleByID(t, "streak-master").Requirement())
	assert.Equal(t, "5 sessions", Rule{Kind: KindGoals, Threshold: 5, Unit: "sessions"}.Requirement())
}

func TestDefaultRulesAreValid(t *testing.T) {
	rules := DefaultRules()
	assert.Len(t, rules, 9)

	seen := map[string]bool{}
	for _, r := range rules {
		assert.NoError(t, r.Validate())
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
	assert.Error(t, Rule{ID: "x", Kind: KindGoals, Metric: "xp", Threshold: 1}.Validate())
}

func TestNewlyUnlocked(t *testing.T) {
	rules := DefaultRules()
	before := EvaluateAll(nil, rules, Metrics{TotalGoalsCompleted: 1}, day1)
	after := EvaluateAll(before, rules, Metrics{TotalGoalsCompleted: 5, TotalHoursLogged: 51}, day2)

	fresh := NewlyUnlocked(before, after)
	ids := make([]string, len(fresh))
	for i, b := range fresh {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"knowledge-seeker", "time-master"}, ids)
	assert.Len(t, Locked(after), 6)
}

func TestPreview_NeverUnlocks(t *testing.T) {
	rules := []Rule{ruleByID(t, "first-steps"), ruleByID(t, "century-club")}
	unlockedAt := day1
	stored := []Badge{{ID: "century-club", Title: "Century Club", Unlocked: true, UnlockedDate: &unlockedAt}}

	got := Preview(stored, rules, Metrics{TotalGoalsCompleted: 3, TotalHoursLogged: 150})
	require.Len(t, got, 2)

	assert.Equal(t, "first-steps", got[0].ID)
	assert.False(t, got[0].Unlocked)
	assert.Nil(t, got[0].UnlockedDate)
	assert.Equal(t, 1, got[0].ProgressValue())

	assert.True(t, got[1].Unlocked)
	require.NotNil(t, got[1].UnlockedDate)
	assert.Equal(t, day1, *got[1].UnlockedDate)
	assert.NotSame(t, stored[0].UnlockedDate, got[1].UnlockedDate)
}
