package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("store: %w", ErrGoalNotFound)

	assert.True(t, errors.Is(wrapped, ErrGoalNotFound))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, errors.Is(wrapped, ErrEntryNotFound), "distinct domain errors of the same kind")
	assert.False(t, IsValidation(wrapped))
}

func TestDomainError_Message(t *testing.T) {
	err := WrapError("calendar", "Add", ErrAlreadyExists, "duplicate", errors.New("id taken"))
	assert.Equal(t, "calendar.Add: duplicate: id taken", err.Error())
	assert.True(t, IsAlreadyExists(err))

	assert.Equal(t, "calendar.Validate: event end must be after start", ErrInvalidRange.Error())
	assert.True(t, IsValidation(ErrInvalidRange))
}

func TestPercent(t *testing.T) {
	p, err := NewPercent(100)
	require.NoError(t, err)
	assert.Equal(t, "100%", p.String())

	_, err = NewPercent(101)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
	_, err = NewPercent(-1)
	assert.ErrorIs(t, err, ErrValueOutOfRange)

	assert.Equal(t, 33, PercentOf(1, 3))
	assert.Equal(t, 67, PercentOf(2, 3))
	assert.Equal(t, 0, PercentOf(5, 0))
}

func TestHours(t *testing.T) {
	h, err := NewHours(2.5)
	require.NoError(t, err)
	assert.Equal(t, "2.5h", h.String())
	assert.Equal(t, 150*time.Minute, h.Duration())
	assert.Equal(t, "3h", Hours(3).String())

	_, err = NewHours(-0.5)
	assert.ErrorIs(t, err, ErrNegativeValue)
}

func TestDateRange(t *testing.T) {
	from := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	_, err := NewDateRange(from, to)
	require.NoError(t, err)

	_, err = NewDateRange(to, from)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEnvelope(t *testing.T) {
	at := time.Date(2024, 12, 22, 10, 0, 0, 0, time.UTC)
	event := NewBadgeUnlockedEvent("first-steps", "First Steps", "1 goal", at)
	event.BaseEvent = event.BaseEvent.WithCorrelationID("req-1")

	env, err := Envelope(event)
	require.NoError(t, err)

	assert.Equal(t, EventBadgeUnlocked, env.Type)
	assert.Equal(t, "first-steps", env.AggregateID)
	assert.Equal(t, at, env.Timestamp)
	assert.Equal(t, "req-1", env.CorrelationID)
	assert.JSONEq(t, `{"title":"First Steps","requirement":"1 goal"}`, string(env.Payload))
}

func TestGoalUpdatedEvent_Completed(t *testing.T) {
	at := time.Now()
	assert.True(t, NewGoalUpdatedEvent("g", 90, 100, "active", "completed", at).Completed())
	assert.False(t, NewGoalUpdatedEvent("g", 100, 100, "completed", "completed", at).Completed())
}
