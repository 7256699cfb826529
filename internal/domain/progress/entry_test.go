package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

var day = time.Date(2024, 12, 22, 0, 0, 0, 0, time.UTC)

func TestNewEntry(t *testing.T) {
	goalID := uuid.New()

	e, err := NewEntry(NewEntryParams{
		Date:    day,
		GoalID:  goalID,
		GoalRef: "React Patterns",
		Hours:   2.5,
		Notes:   " hooks ",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, goalID.String(), e.GroupKey())
	assert.Equal(t, "hooks", e.Notes)
}

func TestNewEntry_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params NewEntryParams
		want   error
	}{
		{"missing date", NewEntryParams{GoalRef: "x", Hours: 1}, shared.ErrEntryDateRequired},
		{"missing goal", NewEntryParams{Date: day, Hours: 1}, shared.ErrEntryGoalRequired},
		{"negative hours", NewEntryParams{Date: day, GoalRef: "x", Hours: -1}, shared.ErrNegativeEntryHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntry(tt.params)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestNewEntry_ZeroHoursAllowed(t *testing.T) {
	e, err := NewEntry(NewEntryParams{Date: day, GoalRef: "Spanish", Hours: 0})
	require.NoError(t, err)
	assert.Equal(t, "ref:Spanish", e.GroupKey())
	assert.False(t, e.HasGoalID())
}

func TestForGoal(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	entries := []Entry{{GoalID: a, Hours: 1}, {GoalID: b, Hours: 2}, {GoalID: a, Hours: 3}}

	got := ForGoal(entries, a)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[1].Hours)
	assert.Len(t, Dates(entries), 3)
}
