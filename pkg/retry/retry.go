// Package retry runs an operation again with exponential backoff and jitter.
// It guards storage connects at startup and best-effort cache writes.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// PermanentError stops the retry loop immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying. Do returns the unwrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent checks if an error is permanent (should not be retried).
func IsPermanent(err error) bool {
	var permanentErr *PermanentError
	return errors.As(err, &permanentErr)
}

func unwrapPermanent(err error) error {
	if p, ok := err.(*PermanentError); ok {
		return p.Err
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Config holds retry configuration.
type Config struct {
	// MaxAttempts counts the first call too.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFactor spreads each delay by +/- this fraction (0..1).
	JitterFactor float64

	// RetryIf narrows which errors are retried. Permanent errors and a
	// cancelled context are never retried.
	RetryIf func(error) bool

	// OnRetry is called before each sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Option is a functional option for configuring retries.
type Option func(*Config)

func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithBackoff sets the first delay, the cap and the growth factor. Zero
// values keep the current setting.
func WithBackoff(initial, max time.Duration, multiplier float64) Option {
	return func(c *Config) {
		if initial > 0 {
			c.InitialDelay = initial
		}
		if max > 0 {
			c.MaxDelay = max
		}
		if multiplier >= 1 {
			c.Multiplier = multiplier
		}
	}
}

func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1 {
			c.JitterFactor = j
		}
	}
}

func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// ══════════════════════════════════════════════════════════════════════════════
// RETRIER
// ══════════════════════════════════════════════════════════════════════════════

// Retrier is immutable and safe for concurrent use.
type Retrier struct {
	config Config
}

// New starts from 3 attempts, 100ms doubling up to 30s, 10% jitter.
func New(opts ...Option) *Retrier {
	config := Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Retrier{config: config}
}

// Config returns the effective configuration.
func (r *Retrier) Config() Config {
	return r.config
}

func (r *Retrier) shouldRetry(err error) bool {
	if IsPermanent(err) || errors.Is(err, context.Canceled) {
		return false
	}
	return r.config.RetryIf == nil || r.config.RetryIf(err)
}

// Do calls operation until it succeeds, fails permanently, runs out of
// attempts or ctx ends. The last operation error wins over ctx.Err().
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return unwrapPermanent(lastErr)
			}
			return ctx.Err()
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= r.config.MaxAttempts || !r.shouldRetry(lastErr) {
			return unwrapPermanent(lastErr)
		}

		wait := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unwrapPermanent(lastErr)
		case <-timer.C:
		}
	}
}

// delay returns initialDelay * multiplier^(attempt-1), capped and jittered.
func (r *Retrier) delay(attempt int) time.Duration {
	d := math.Min(
		float64(r.config.InitialDelay)*math.Pow(r.config.Multiplier, float64(attempt-1)),
		float64(r.config.MaxDelay),
	)
	if j := r.config.JitterFactor; j > 0 {
		d *= 1 + j*(rand.Float64()*2-1)
	}
	return time.Duration(math.Max(d, 0))
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, r *Retrier, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)
		return opErr
	})
	return result, err
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// StartupRetrier waits for Postgres, SQLite or Redis that may still be
// starting alongside the tracker.
func StartupRetrier(maxAttempts int, onRetry func(attempt int, err error, delay time.Duration)) *Retrier {
	return New(
		WithMaxAttempts(maxAttempts),
		WithBackoff(250*time.Millisecond, 5*time.Second, 2),
		WithJitter(0.2),
		WithOnRetry(onRetry),
	)
}

// CacheRetrier makes one quick second attempt at a cache write.
func CacheRetrier() *Retrier {
	return New(
		WithMaxAttempts(2),
		WithBackoff(20*time.Millisecond, 100*time.Millisecond, 2),
		WithJitter(0.05),
	)
}
