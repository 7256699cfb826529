package messaging

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylog/learning-tracker/internal/domain/shared"
)

var at = time.Date(2024, 12, 22, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{Logger: quietLogger()})
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := syncBus()

	var unlocked, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventBadgeUnlocked, func(e shared.Event) error {
		unlocked = append(unlocked, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBadgeUnlockedEvent("first-steps", "First Steps", "1 goal", at)))
	require.NoError(t, bus.Publish(shared.NewGoalDeletedEvent("g-1", "Spanish", at)))

	assert.Equal(t, []shared.EventType{shared.EventBadgeUnlocked}, unlocked)
	assert.Equal(t, []shared.EventType{shared.EventBadgeUnlocked, shared.EventGoalDeleted}, all)
	assert.Equal(t, int64(1), bus.Metrics().Published(shared.EventBadgeUnlocked))
}

func TestInMemoryEventBus_HandlerErrorsAreNotReturned(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("kaboom") }))

	assert.NoError(t, bus.Publish(shared.NewGoalDeletedEvent("g-1", "Spanish", at)))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.Equal(t, int64(2), snap.HandlerFailures)
}

func TestInMemoryEventBus_Validation(t *testing.T) {
	bus := syncBus()

	assert.Error(t, bus.Subscribe(shared.EventGoalCreated, nil))
	assert.Error(t, bus.SubscribeAll(nil))
	assert.Error(t, bus.Publish(nil))
	assert.NotEmpty(t, bus.ID())
}

func TestInMemoryEventBus_AsyncCloseWaitsForHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
		Logger:         quietLogger(),
	})

	var handled atomic.Int32
	require.NoError(t, bus.Subscribe(shared.EventProgressLogged, func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewProgressLoggedEvent("e", "g", "2024-12-22", 1, at)))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(10), handled.Load())
	assert.ErrorIs(t, bus.Publish(shared.NewGoalDeletedEvent("g", "x", at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.NoError(t, bus.Close())
}

func TestMiddlewareOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		trace []string
	)
	mark := func(name string) Middleware {
		return func(next shared.EventHandler) shared.EventHandler {
			return func(e shared.Event) error {
				mu.Lock()
				trace = append(trace, name)
				mu.Unlock()
				return next(e)
			}
		}
	}

	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		Logger:      quietLogger(),
		Middlewares: []Middleware{mark("outer"), mark("inner"), LoggingMiddleware(quietLogger())},
	})
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		trace = append(trace, "handler")
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewGoalDeletedEvent("g", "x", at)))
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(quietLogger())(func(shared.Event) error { panic("nil map") })

	err := h(shared.NewGoalDeletedEvent("g", "x", at))
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Contains(t, err.Error(), "nil map")
}
