package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

var at = time.Date(2024, 12, 22, 9, 0, 0, 0, time.UTC)

type fakeBus struct {
	byType map[shared.EventType][]shared.EventHandler
	all    []shared.EventHandler
}

func newFakeBus() *fakeBus {
	return &fakeBus{byType: map[shared.EventType][]shared.EventHandler{}}
}

func (b *fakeBus) Subscribe(t shared.EventType, h shared.EventHandler) error {
	b.byType[t] = append(b.byType[t], h)
	return nil
}

func (b *fakeBus) SubscribeAll(h shared.EventHandler) error {
	b.all = append(b.all, h)
	return nil
}

func (b *fakeBus) Publish(e shared.Event) []error {
	var errs []error
	for _, h := range append(b.byType[e.EventType()], b.all...) {
		if err := h(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) (int, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("no deadline")
	}
	return 3, f.err
}

func TestHandlers_Register(t *testing.T) {
	cache := &fakeInvalidator{}
	h := New(cache, nil)
	bus := newFakeBus()
	require.NoError(t, h.Register(bus))

	assert.Empty(t, bus.Publish(shared.NewBadgeUnlockedEvent("first-steps", "First Steps", "Complete 1 goal", at)))
	assert.Empty(t, bus.Publish(shared.NewGoalUpdatedEvent("g1", 80, 100, "active", "completed", at)))
	assert.Empty(t, bus.Publish(shared.NewProgressLoggedEvent("e1", "g1", "2024-12-22", 1.5, at)))

	assert.Equal(t, []string{"first-steps"}, h.BadgeUnlocked.Unlocked())
	assert.Equal(t, 3, cache.calls)
}

func TestHandlers_WithoutCache(t *testing.T) {
	h := New(nil, nil)
	bus := newFakeBus()
	require.NoError(t, h.Register(bus))

	assert.Nil(t, h.TrackerChanged)
	assert.Empty(t, bus.all)
}

func TestOnTrackerChanged_ReturnsCacheError(t *testing.T) {
	cache := &fakeInvalidator{err: errors.New("redis down")}
	h := NewOnTrackerChangedHandler(cache, 0, nil)

	err := h.Handle(shared.NewGoalDeletedEvent("g1", "Spanish", at))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goal.deleted")
}

func TestOnBadgeUnlocked_IgnoresOtherEvents(t *testing.T) {
	h := NewOnBadgeUnlockedHandler(nil)
	require.NoError(t, h.Handle(shared.NewGoalDeletedEvent("g1", "Spanish", at)))
	assert.Empty(t, h.Unlocked())
}
