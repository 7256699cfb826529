package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustZone(t *testing.T, name string) Zone {
	t.Helper()
	z, err := NewZone(name)
	require.NoError(t, err)
	return z
}

func TestDayKey_LocalMidnight(t *testing.T) {
	z := mustZone(t, "America/New_York")

	// 23 hours apart, crossing local midnight.
	late := z.DateTime(2024, time.December, 21, 23, 30)
	next := late.Add(23 * time.Hour)
	assert.NotEqual(t, z.DayKey(late), z.DayKey(next))

	// 1ms apart on the same local day, but on different UTC days.
	a := z.DateTime(2024, time.December, 21, 20, 0)
	b := a.Add(time.Millisecond)
	assert.Equal(t, "2024-12-21", z.DayKey(a))
	assert.Equal(t, z.DayKey(a), z.DayKey(b))
	assert.Equal(t, "2024-12-22", a.UTC().Format(FormatDate))
}

func TestWeekKey_StartsMonday(t *testing.T) {
	z := UTC

	sunday := z.Date(2024, time.December, 22)
	monday := z.Date(2024, time.December, 23)
	prevMonday := z.Date(2024, time.December, 16)

	assert.Equal(t, z.WeekKey(prevMonday), z.WeekKey(sunday))
	assert.NotEqual(t, z.WeekKey(sunday), z.WeekKey(monday))
	assert.Equal(t, "2024-W51", z.WeekKey(sunday))
	assert.Equal(t, "2024-W52", z.WeekKey(monday))

	// ISO week-numbering year differs from the calendar year here.
	assert.Equal(t, "2025-W01", z.WeekKey(z.Date(2024, time.December, 30)))
}

func TestMonthKey(t *testing.T) {
	z := mustZone(t, "Asia/Tokyo")
	instant := time.Date(2024, time.November, 30, 20, 0, 0, 0, time.UTC) // Dec 1 in Tokyo
	assert.Equal(t, "2024-12", z.MonthKey(instant))
	assert.Equal(t, "2024-11", UTC.MonthKey(instant))
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", UTC.DateTime(2024, 12, 20, 1, 0), UTC.DateTime(2024, 12, 20, 23, 0), 0},
		{"next day, one minute apart", UTC.DateTime(2024, 12, 20, 23, 59), UTC.DateTime(2024, 12, 21, 0, 0), 1},
		{"backwards is negative", UTC.Date(2024, 12, 22), UTC.Date(2024, 12, 19), -3},
		{"across month", UTC.Date(2024, 11, 30), UTC.Date(2024, 12, 2), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UTC.DaysBetween(tt.a, tt.b))
		})
	}
}

func TestDaysBetween_DaylightSaving(t *testing.T) {
	z := mustZone(t, "Europe/Berlin")

	// Spring forward: the local day of 2024-03-31 has only 23 hours.
	before := z.DateTime(2024, time.March, 30, 12, 0)
	after := z.DateTime(2024, time.April, 1, 0, 30)
	assert.Equal(t, 2, z.DaysBetween(before, after))

	// Fall back: 2024-10-27 has 25 hours.
	start := z.Date(2024, time.October, 27)
	end := z.DateTime(2024, time.October, 27, 23, 59)
	assert.Equal(t, 0, z.DaysBetween(start, end))
	assert.Equal(t, 1, z.DaysBetween(start, z.Date(2024, time.October, 28)))
}

func TestStartOfWeek(t *testing.T) {
	z := UTC
	assert.Equal(t, z.Date(2024, 12, 16), z.StartOfWeek(z.DateTime(2024, 12, 22, 18, 0)))
	assert.Equal(t, z.Date(2024, 12, 23), z.StartOfWeek(z.Date(2024, 12, 23)))
}

func TestKeysBetween(t *testing.T) {
	z := UTC

	days := z.KeysBetween(Day, z.Date(2024, 12, 30), z.Date(2025, 1, 2))
	assert.Equal(t, []string{"2024-12-30", "2024-12-31", "2025-01-01", "2025-01-02"}, days)

	months := z.KeysBetween(Month, z.Date(2024, 10, 31), z.Date(2025, 1, 1))
	assert.Equal(t, []string{"2024-10", "2024-11", "2024-12", "2025-01"}, months)

	weeks := z.KeysBetween(Week, z.Date(2024, 12, 22), z.Date(2024, 12, 31))
	assert.Equal(t, []string{"2024-W51", "2024-W52", "2025-W01"}, weeks)

	assert.Nil(t, z.KeysBetween(Day, z.Date(2025, 1, 2), z.Date(2025, 1, 1)))
}

func TestRangesOverlap(t *testing.T) {
	at := func(h int) time.Time { return UTC.DateTime(2024, 12, 22, h, 0) }

	assert.True(t, RangesOverlap(at(14), at(16), at(15), at(17)))
	assert.True(t, RangesOverlap(at(14), at(18), at(15), at(16)), "containment")
	assert.False(t, RangesOverlap(at(14), at(16), at(16), at(17)), "touching endpoints")
	assert.False(t, RangesOverlap(at(16), at(17), at(14), at(16)), "touching endpoints reversed")
	assert.False(t, RangesOverlap(at(9), at(10), at(14), at(16)))
}

func TestZeroZoneIsUTC(t *testing.T) {
	var z Zone
	assert.Equal(t, time.UTC, z.Location())
	assert.Equal(t, "2024-12-22", z.DayKey(time.Date(2024, 12, 22, 23, 0, 0, 0, time.UTC)))
}
