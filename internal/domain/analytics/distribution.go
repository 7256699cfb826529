package analytics

import (
	"sort"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// UnknownGoalLabel is shown for entries that carry neither a resolvable goal
// nor a captured label.
const UnknownGoalLabel = "Unassigned"

// Share is one slice of the time-distribution chart.
type Share struct {
	GoalID  uuid.UUID `json:"goal_id"`
	Label   string    `json:"label"`
	Hours   float64   `json:"hours"`
	Percent int       `json:"percent"`
}

// LabelResolver returns the display label of a goal at read time. fallback
// is the label captured on the entry.
type LabelResolver func(goalID uuid.UUID, fallback string) string

// GoalLabels resolves labels from the current goal collection, falling back
// to the captured label for deleted goals and legacy label-only entries.
func GoalLabels(goals []goal.Goal) LabelResolver {
	index := goal.Index(goals)
	return func(goalID uuid.UUID, fallback string) string {
		if g, ok := index[goalID]; ok && goalID != uuid.Nil {
			return g.Label()
		}
		if fallback != "" {
			return fallback
		}
		return UnknownGoalLabel
	}
}

// Distribution groups entries by goal and reports each group's share of the
// grand total. Percentages are rounded independently and may not sum to
// exactly 100. Sorted by hours (desc), then label.
func Distribution(entries []progress.Entry, resolve LabelResolver) []Share {
	if resolve == nil {
		resolve = GoalLabels(nil)
	}

	var (
		order  []string
		groups = make(map[string]*Share)
		total  float64
	)
	for _, e := range entries {
		key := e.GroupKey()
		s, ok := groups[key]
		if !ok {
			s = &Share{GoalID: e.GoalID, Label: resolve(e.GoalID, e.GoalRef)}
			groups[key] = s
			order = append(order, key)
		}
		s.Hours += e.Hours
		total += e.Hours
	}

	shares := make([]Share, 0, len(order))
	for _, key := range order {
		s := groups[key]
		s.Percent = shared.PercentOf(s.Hours, total)
		shares = append(shares, *s)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Hours != shares[j].Hours {
			return shares[i].Hours > shares[j].Hours
		}
		return shares[i].Label < shares[j].Label
	})
	return shares
}
