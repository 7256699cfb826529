// Package analytics folds raw progress entries into the derived numbers the
// dashboard shows: time-bucketed hour series, per-goal distribution, streaks
// and summary statistics. Every function is pure; the evaluation instant and
// the learner's zone are always explicit inputs.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

// Bucket is the total logged time within one day, week or month.
type Bucket struct {
	Key        string  `json:"key"`
	TotalHours float64 `json:"total_hours"`
	Entries    int     `json:"entries"`
}

// AggregateOptions controls bucketing.
type AggregateOptions struct {
	// Zone is the learner's calendar. Zero value means UTC.
	Zone timeutil.Zone
	// Granularity defaults to day.
	Granularity timeutil.Granularity
	// Range keeps only entries whose local day lies within it (inclusive).
	Range *shared.DateRange
	// Fill lists bucket keys that must appear even when empty.
	Fill []string
}

// Aggregate sums entry hours per bucket, sorted chronologically.
//
// Buckets without entries are omitted unless listed in Fill, in which case
// they report zero. Buckets with entries are always reported, so the sum of
// all buckets equals the sum of the (range-filtered) entries.
func Aggregate(entries []progress.Entry, opts AggregateOptions) []Bucket {
	g := opts.Granularity
	if !g.IsValid() {
		g = timeutil.Day
	}
	zone := opts.Zone

	byKey := make(map[string]*Bucket, len(opts.Fill))
	for _, key := range opts.Fill {
		if _, ok := byKey[key]; !ok {
			byKey[key] = &Bucket{Key: key}
		}
	}

	for _, e := range entries {
		if opts.Range != nil && !InRange(zone, e.Date, *opts.Range) {
			continue
		}
		key := zone.Key(g, e.Date)
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Key: key}
			byKey[key] = b
		}
		b.TotalHours += e.Hours
		b.Entries++
	}

	buckets := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		buckets = append(buckets, *b)
	}
	// Day, ISO week and month keys all sort chronologically as strings.
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}

// InRange reports whether the local day of t lies within r, inclusive.
func InRange(zone timeutil.Zone, t time.Time, r shared.DateRange) bool {
	return zone.DaysBetween(r.From, t) >= 0 && zone.DaysBetween(t, r.To) >= 0
}

// TotalHours sums the hours of all entries.
func TotalHours(entries []progress.Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Hours
	}
	return total
}

// HoursInRange sums the hours of entries whose local day lies within r.
func HoursInRange(entries []progress.Entry, zone timeutil.Zone, r shared.DateRange) float64 {
	var total float64
	for _, e := range entries {
		if InRange(zone, e.Date, r) {
			total += e.Hours
		}
	}
	return total
}

// PeriodChange returns the rounded percentage change from previous to
// current ("+15% from last week"). With no previous activity any current
// activity counts as +100%.
func PeriodChange(current, previous float64) int {
	if previous <= 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}

// Values extracts the totals of a series, in order.
func Values(buckets []Bucket) []float64 {
	values := make([]float64, len(buckets))
	for i, b := range buckets {
		values[i] = b.TotalHours
	}
	return values
}
