package shared

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Percent Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percent is an integer completion percentage.
type Percent int

const (
	MinPercent Percent = 0
	MaxPercent Percent = 100
)

// IsValid checks if the percentage is within 0..100.
func (p Percent) IsValid() bool {
	return p >= MinPercent && p <= MaxPercent
}

// Int returns the underlying int value.
func (p Percent) Int() int {
	return int(p)
}

// String formats the percentage for display.
func (p Percent) String() string {
	return fmt.Sprintf("%d%%", int(p))
}

// NewPercent creates a new Percent with validation.
func NewPercent(value int) (Percent, error) {
	p := Percent(value)
	if !p.IsValid() {
		return 0, NewDomainError("shared", "NewPercent", ErrValueOutOfRange,
			fmt.Sprintf("percentage %d is outside 0..100", value))
	}
	return p, nil
}

// PercentOf returns round(part/total*100), or 0 when total is not positive.
// The result is not clamped: callers comparing periods may exceed 100.
func PercentOf(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}

// ═══════════════════════════════════════════════════════════════════════════
// Hours Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Hours is a non-negative amount of logged study time.
type Hours float64

// IsValid checks that the amount is finite and non-negative.
func (h Hours) IsValid() bool {
	f := float64(h)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// Float returns the underlying float value.
func (h Hours) Float() float64 {
	return float64(h)
}

// Duration converts the amount to a time.Duration.
func (h Hours) Duration() time.Duration {
	return time.Duration(float64(h) * float64(time.Hour))
}

// String formats the amount with one decimal, e.g. "2.5h".
func (h Hours) String() string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(h)), ".0") + "h"
}

// NewHours creates a new Hours value with validation.
func NewHours(value float64) (Hours, error) {
	h := Hours(value)
	if !h.IsValid() {
		return 0, NewDomainError("shared", "NewHours", ErrNegativeValue, "hours must be a non-negative number")
	}
	return h, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// DateRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateRange is an inclusive range of calendar days. From and To may be any
// instant on the first and last day; callers compare them by local day.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the range is set and ordered.
func (r DateRange) IsValid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && !r.From.After(r.To)
}

// NewDateRange creates a new DateRange with validation.
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: from, To: to}
	if !r.IsValid() {
		return DateRange{}, NewDomainError("shared", "NewDateRange", ErrInvalidInput, "'from' must not be after 'to'")
	}
	return r, nil
}
