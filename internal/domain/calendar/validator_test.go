package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

func at(day, hour int) time.Time {
	return time.Date(2024, time.December, day, hour, 0, 0, 0, time.UTC)
}

func mustEvent(t *testing.T, typ Type, start, end time.Time) Event {
	t.Helper()
	e, err := NewEvent(NewEventParams{Title: string(typ) + " session", Type: typ, Start: start, End: end})
	require.NoError(t, err)
	return e
}

func TestValidate_OverlappingStudySessionsConflict(t *testing.T) {
	existing := mustEvent(t, TypeStudy, at(22, 14), at(22, 16))
	candidate := mustEvent(t, TypeStudy, at(22, 15), at(22, 17))

	_, err := Validate(candidate, []Event{existing})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrSchedulingConflict))
	assert.True(t, shared.IsSchedulingConflict(err))

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, existing.ID, conflict.EventID)
}

func TestValidate_DeadlinesNeverConflict(t *testing.T) {
	existing := mustEvent(t, TypeDeadline, at(22, 14), at(22, 16))
	candidate := mustEvent(t, TypeDeadline, at(22, 15), at(22, 17))

	got, err := Validate(candidate, []Event{existing})
	require.NoError(t, err)
	assert.Equal(t, candidate, got)

	// A deadline inside a study session is fine in both directions.
	study := mustEvent(t, TypeStudy, at(22, 14), at(22, 16))
	_, err = Validate(candidate, []Event{study})
	assert.NoError(t, err)
	_, err = Validate(study, []Event{existing})
	assert.NoError(t, err)
}

func TestValidate_MeetingConflictsWithStudy(t *testing.T) {
	existing := mustEvent(t, TypeMeeting, at(22, 9), at(22, 10))
	candidate := mustEvent(t, TypeStudy, at(22, 9), at(22, 11))

	_, err := Validate(candidate, []Event{existing})
	assert.ErrorIs(t, err, shared.ErrSchedulingConflict)
}

func TestValidate_InvalidRange(t *testing.T) {
	candidate := mustEvent(t, TypeStudy, at(22, 16), at(22, 14))
	_, err := Validate(candidate, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
	assert.False(t, shared.IsSchedulingConflict(err))

	zero := mustEvent(t, TypeDeadline, at(22, 16), at(22, 16))
	_, err = Validate(zero, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestValidate_TouchingEndpointsAllowed(t *testing.T) {
	existing := mustEvent(t, TypeStudy, at(22, 14), at(22, 16))
	candidate := mustEvent(t, TypeStudy, at(22, 16), at(22, 17))

	_, err := Validate(candidate, []Event{existing})
	assert.NoError(t, err)
}

func TestValidate_SkipsSameID(t *testing.T) {
	existing := mustEvent(t, TypeStudy, at(22, 14), at(22, 16))
	moved := existing
	moved.End = at(22, 17)

	_, err := Validate(moved, []Event{existing})
	assert.NoError(t, err)
}

func TestNewEvent_Validation(t *testing.T) {
	_, err := NewEvent(NewEventParams{Title: "", Type: TypeStudy})
	assert.ErrorIs(t, err, shared.ErrEventTitleRequired)

	_, err = NewEvent(NewEventParams{Title: "Lunch", Type: "social"})
	assert.ErrorIs(t, err, shared.ErrInvalidEventType)

	id := uuid.New()
	e, err := NewEvent(NewEventParams{ID: id, Title: "Review", Type: TypeMeeting, Start: at(22, 9), End: at(22, 10)})
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, time.Hour, e.Duration())
}

func TestUpcoming(t *testing.T) {
	past := mustEvent(t, TypeStudy, at(21, 9), at(21, 10))
	running := mustEvent(t, TypeStudy, at(22, 8), at(22, 10))
	later := mustEvent(t, TypeMeeting, at(22, 14), at(22, 15))
	tomorrow := mustEvent(t, TypeDeadline, at(23, 9), at(23, 10))

	got := Upcoming([]Event{tomorrow, past, later, running}, at(22, 9), 0)
	require.Len(t, got, 3)
	assert.Equal(t, []uuid.UUID{running.ID, later.ID, tomorrow.ID}, []uuid.UUID{got[0].ID, got[1].ID, got[2].ID})

	assert.Len(t, Upcoming([]Event{tomorrow, past, later, running}, at(22, 9), 2), 2)
	assert.Empty(t, Upcoming(nil, at(22, 9), 5))
}

func TestOnDay(t *testing.T) {
	zone, err := timeutil.NewZone("America/New_York")
	require.NoError(t, err)

	// 2024-12-22 23:00 UTC is 18:00 on the 22nd in New York.
	evening := mustEvent(t, TypeStudy, at(22, 23), time.Date(2024, 12, 23, 0, 30, 0, 0, time.UTC))
	// 2024-12-23 06:00 UTC is 01:00 on the 23rd in New York.
	night := mustEvent(t, TypeStudy, at(23, 6), at(23, 7))

	got := OnDay([]Event{night, evening}, zone.Date(2024, 12, 22), zone)
	require.Len(t, got, 1)
	assert.Equal(t, evening.ID, got[0].ID)
}
