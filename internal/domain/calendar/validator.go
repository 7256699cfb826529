package calendar

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// ConflictError сообщает о пересечении с уже запланированным событием.
// errors.Is(err, shared.ErrSchedulingConflict) возвращает true.
type ConflictError struct {
	// EventID - ID события, с которым конфликтует кандидат.
	EventID uuid.UUID
	// Title - название этого события.
	Title string
}

// Error implements error.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("calendar.Validate: %v: overlaps %q (%s)", shared.ErrSchedulingConflict, e.Title, e.EventID)
}

// Unwrap позволяет проверять ошибку через errors.Is.
func (e *ConflictError) Unwrap() error {
	return shared.ErrSchedulingConflict
}

// Validate проверяет размещение кандидата среди существующих событий.
//
// End <= Start -> shared.ErrInvalidRange. Пересечение двух эксклюзивных
// событий -> *ConflictError с ID первого конфликтующего события.
// События с тем же ID, что у кандидата, пропускаются. При успехе кандидат
// возвращается без изменений, вставка остаётся за вызывающим.
func Validate(candidate Event, existing []Event) (Event, error) {
	if !candidate.End.After(candidate.Start) {
		return Event{}, shared.ErrInvalidRange
	}

	if !candidate.Type.IsExclusive() {
		return candidate, nil
	}

	for _, other := range existing {
		if other.ID == candidate.ID || !other.Type.IsExclusive() {
			continue
		}
		if candidate.Overlaps(other) {
			return Event{}, &ConflictError{EventID: other.ID, Title: other.Title}
		}
	}

	return candidate, nil
}
