package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errConnRefused = errors.New("connection refused")
	errBadDSN      = errors.New("invalid dsn")
)

func fast(opts ...Option) *Retrier {
	base := []Option{WithBackoff(time.Millisecond, 2*time.Millisecond, 2), WithJitter(0)}
	return New(append(base, opts...)...)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(3)).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errConnRefused
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_RetryIfNarrows(t *testing.T) {
	calls := 0
	r := fast(WithRetryIf(func(err error) bool { return !errors.Is(err, errBadDSN) }))
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errBadDSN
	})
	assert.Equal(t, errBadDSN, err)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentIsUnwrapped(t *testing.T) {
	calls := 0
	err := fast().Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errConnRefused)
	})
	assert.Equal(t, errConnRefused, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedReturnsLastError(t *testing.T) {
	var retries []int
	r := fast(WithMaxAttempts(4), WithOnRetry(func(attempt int, _ error, _ time.Duration) {
		retries = append(retries, attempt)
	}))

	err := r.Do(context.Background(), func(context.Context) error {
		return errConnRefused
	})
	assert.Equal(t, errConnRefused, err)
	assert.Equal(t, []int{1, 2, 3}, retries)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fast().Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay_Backoff(t *testing.T) {
	r := New(WithBackoff(100*time.Millisecond, time.Second, 2), WithJitter(0))

	assert.Equal(t, 100*time.Millisecond, r.delay(1))
	assert.Equal(t, 400*time.Millisecond, r.delay(3))
	assert.Equal(t, time.Second, r.delay(10))
}

func TestDoWithData(t *testing.T) {
	calls := 0
	got, err := DoWithData(context.Background(), fast(), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errConnRefused
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestPresets(t *testing.T) {
	r := StartupRetrier(5, nil)
	assert.Equal(t, 5, r.Config().MaxAttempts)
	assert.True(t, r.shouldRetry(errConnRefused))
	assert.False(t, r.shouldRetry(Permanent(errConnRefused)))

	c := CacheRetrier()
	assert.Equal(t, 2, c.Config().MaxAttempts)
	assert.False(t, c.shouldRetry(context.Canceled))
}
