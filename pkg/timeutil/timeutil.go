// Package timeutil provides calendar utilities for the learning tracker.
// Every bucket key and day comparison is computed in the learner's local
// zone, so two instants on the same local day always share a key.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the canonical day key format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatMonth is the month key format (YYYY-MM).
	FormatMonth = "2006-01"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatShortDate is a short format used in chart labels (Jan 2).
	FormatShortDate = "Jan 2"
	// FormatShortMonth is a month chart label (Jan).
	FormatShortMonth = "Jan"
	// FormatShortWeekday is a weekday chart label (Mon).
	FormatShortWeekday = "Mon"
)

// Granularity is the width of an aggregation bucket.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// IsValid reports whether g is one of the supported granularities.
func (g Granularity) IsValid() bool {
	switch g {
	case Day, Week, Month:
		return true
	}
	return false
}

// Zone is the learner's local calendar. The zero value behaves as UTC.
type Zone struct {
	loc *time.Location
}

// UTC is the zone used when no learner timezone is configured.
var UTC = Zone{loc: time.UTC}

// In wraps an already loaded location.
func In(loc *time.Location) Zone {
	if loc == nil {
		loc = time.UTC
	}
	return Zone{loc: loc}
}

// NewZone loads an IANA timezone by name (e.g. "Europe/Berlin").
func NewZone(name string) (Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return UTC, fmt.Errorf("timeutil: load location %q: %w", name, err)
	}
	return Zone{loc: loc}, nil
}

// Location returns the underlying location.
func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// String returns the zone name.
func (z Zone) String() string {
	return z.Location().String()
}

// Local converts t to the zone.
func (z Zone) Local(t time.Time) time.Time {
	return t.In(z.Location())
}

// Date creates midnight of the given calendar date in the zone.
func (z Zone) Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, z.Location())
}

// DateTime creates a wall-clock time in the zone.
func (z Zone) DateTime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, z.Location())
}

// ══════════════════════════════════════════════════════════════════════════════
// BUCKET KEYS
// ══════════════════════════════════════════════════════════════════════════════

// DayKey returns the canonical YYYY-MM-DD key of the local day containing t.
func (z Zone) DayKey(t time.Time) string {
	return z.Local(t).Format(FormatDate)
}

// WeekKey returns the ISO week key (YYYY-Www) of the local day containing t.
// Weeks start on Monday; the year is the ISO week-numbering year.
func (z Zone) WeekKey(t time.Time) string {
	year, week := z.Local(t).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey returns the YYYY-MM key of the local month containing t.
func (z Zone) MonthKey(t time.Time) string {
	return z.Local(t).Format(FormatMonth)
}

// Key returns the bucket key of t at the given granularity.
func (z Zone) Key(g Granularity, t time.Time) string {
	switch g {
	case Week:
		return z.WeekKey(t)
	case Month:
		return z.MonthKey(t)
	default:
		return z.DayKey(t)
	}
}

// KeysBetween enumerates every bucket key from the bucket containing from up
// to and including the bucket containing to. Returns nil when to < from.
func (z Zone) KeysBetween(g Granularity, from, to time.Time) []string {
	if z.DaysBetween(from, to) < 0 {
		return nil
	}

	var (
		cursor time.Time
		last   = z.Key(g, to)
		keys   []string
	)
	switch g {
	case Week:
		cursor = z.StartOfWeek(from)
	case Month:
		cursor = z.StartOfMonth(from)
	default:
		cursor = z.StartOfDay(from)
	}

	for {
		key := z.Key(g, cursor)
		keys = append(keys, key)
		if key == last {
			return keys
		}
		switch g {
		case Week:
			cursor = cursor.AddDate(0, 0, 7)
		case Month:
			cursor = cursor.AddDate(0, 1, 0)
		default:
			cursor = cursor.AddDate(0, 0, 1)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DAY ARITHMETIC
// ══════════════════════════════════════════════════════════════════════════════

// civil projects the local calendar date of t onto a UTC midnight, so that
// differences are whole multiples of 24h regardless of DST in the zone.
func (z Zone) civil(t time.Time) time.Time {
	local := z.Local(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of local calendar-day boundaries
// between a and b (positive when b is later).
func (z Zone) DaysBetween(a, b time.Time) int {
	return int(z.civil(b).Sub(z.civil(a)).Hours() / 24)
}

// IsSameDay checks if two instants fall on the same local day.
func (z Zone) IsSameDay(a, b time.Time) bool {
	return z.DaysBetween(a, b) == 0
}

// IsConsecutiveDay checks if b is the local day after a.
func (z Zone) IsConsecutiveDay(a, b time.Time) bool {
	return z.DaysBetween(a, b) == 1
}

// StartOfDay returns local midnight of the day containing t.
func (z Zone) StartOfDay(t time.Time) time.Time {
	local := z.Local(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, z.Location())
}

// EndOfDay returns the last instant of the local day containing t.
func (z Zone) EndOfDay(t time.Time) time.Time {
	local := z.Local(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, z.Location())
}

// StartOfWeek returns local midnight of the Monday starting t's week.
func (z Zone) StartOfWeek(t time.Time) time.Time {
	local := z.Local(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return z.StartOfDay(local.AddDate(0, 0, -(weekday - 1)))
}

// EndOfWeek returns the end of Sunday of t's week.
func (z Zone) EndOfWeek(t time.Time) time.Time {
	return z.EndOfDay(z.StartOfWeek(t).AddDate(0, 0, 6))
}

// StartOfMonth returns local midnight of the first day of t's month.
func (z Zone) StartOfMonth(t time.Time) time.Time {
	local := z.Local(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, z.Location())
}

// EndOfMonth returns the last instant of t's month.
func (z Zone) EndOfMonth(t time.Time) time.Time {
	return z.EndOfDay(z.StartOfMonth(t).AddDate(0, 1, -1))
}

// ParseDate parses a YYYY-MM-DD string as local midnight.
func (z Zone) ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, z.Location())
}

// ParseDateTime parses a "YYYY-MM-DD HH:MM" string in the zone.
func (z Zone) ParseDateTime(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDateTime, value, z.Location())
}

// Format formats t in the zone with the given layout.
func (z Zone) Format(t time.Time, layout string) string {
	return z.Local(t).Format(layout)
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERVALS
// ══════════════════════════════════════════════════════════════════════════════

// RangesOverlap reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching endpoints do not overlap.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
