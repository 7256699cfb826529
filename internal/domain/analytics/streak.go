package analytics

import (
	"sort"
	"time"

	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

// Streak summarizes consecutive active days.
type Streak struct {
	// Current is the run ending at the last active day, or 0 when that day
	// is neither today nor yesterday relative to the evaluation instant.
	Current int `json:"current"`
	// Longest is the longest run ever observed.
	Longest int `json:"longest"`
	// LastActiveDay is the day key of the most recent active day.
	LastActiveDay string `json:"last_active_day,omitempty"`
}

// CalculateStreak derives the current and longest streak from activity
// instants. Several instants on the same local day count once; days after
// the evaluation day are ignored.
func CalculateStreak(dates []time.Time, now time.Time, zone timeutil.Zone) Streak {
	days := activeDays(dates, now, zone)
	if len(days) == 0 {
		return Streak{}
	}

	var (
		run     = 1
		longest = 1
	)
	for i := 1; i < len(days); i++ {
		if zone.DaysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := days[len(days)-1]
	current := 0
	if gap := zone.DaysBetween(last, now); gap == 0 || gap == 1 {
		current = run
	}

	return Streak{
		Current:       current,
		Longest:       longest,
		LastActiveDay: zone.DayKey(last),
	}
}

// StreakFromEntries is CalculateStreak over entry dates.
func StreakFromEntries(entries []progress.Entry, now time.Time, zone timeutil.Zone) Streak {
	return CalculateStreak(progress.Dates(entries), now, zone)
}

// activeDays returns one local-midnight instant per active day, ascending.
func activeDays(dates []time.Time, now time.Time, zone timeutil.Zone) []time.Time {
	seen := make(map[string]time.Time, len(dates))
	for _, d := range dates {
		if d.IsZero() || zone.DaysBetween(d, now) < 0 {
			continue
		}
		key := zone.DayKey(d)
		if _, ok := seen[key]; !ok {
			seen[key] = zone.StartOfDay(d)
		}
	}

	days := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}
