package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studylog/learning-tracker/internal/application/query"
	"github.com/studylog/learning-tracker/pkg/circuitbreaker"
	"github.com/studylog/learning-tracker/pkg/retry"
)

// TTLDashboard is the default lifetime of a cached dashboard.
const TTLDashboard = 10 * time.Minute

const dashboardNamespace = "dashboard"

// DashboardCache stores dashboard read models. Keys already carry the
// snapshot fingerprint, so a stale entry is never served after a write;
// Invalidate only frees memory early. Calls go through a circuit breaker so
// that a Redis outage costs one fast rejection per read instead of a timeout.
type DashboardCache struct {
	cache   *Cache
	ttl     time.Duration
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
}

var _ query.DashboardCache = (*DashboardCache)(nil)

func NewDashboardCache(cache *Cache, ttl time.Duration) *DashboardCache {
	if ttl <= 0 {
		ttl = TTLDashboard
	}
	return &DashboardCache{
		cache:   cache,
		ttl:     ttl,
		retrier: retry.CacheRetrier(),
		breaker: circuitbreaker.CacheBreaker(nil, IsCacheFailure),
	}
}

// WithBreaker replaces the default breaker.
func (d *DashboardCache) WithBreaker(cb *circuitbreaker.CircuitBreaker) *DashboardCache {
	if cb != nil {
		d.breaker = cb
	}
	return d
}

// IsCacheFailure reports whether err says something about Redis health.
func IsCacheFailure(err error) bool {
	return !errors.Is(err, ErrCacheMiss) &&
		!errors.Is(err, ErrCacheSerialization) &&
		!errors.Is(err, context.Canceled)
}

// DashboardKey returns the Redis key for a dashboard cache key.
func (d *DashboardCache) DashboardKey(key string) string {
	return d.cache.Key(dashboardNamespace, key)
}

func (d *DashboardCache) GetDashboard(ctx context.Context, key string) (*query.DashboardDTO, error) {
	var dto query.DashboardDTO
	err := d.breaker.Execute(ctx, func(ctx context.Context) error {
		return d.cache.Get(ctx, d.DashboardKey(key), &dto)
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (d *DashboardCache) SetDashboard(ctx context.Context, key string, dto *query.DashboardDTO) error {
	if dto == nil {
		return ErrCacheNilValue
	}
	return d.breaker.Execute(ctx, func(ctx context.Context) error {
		return d.retrier.Do(ctx, func(ctx context.Context) error {
			err := d.cache.Set(ctx, d.DashboardKey(key), dto, d.ttl)
			if errors.Is(err, ErrCacheSerialization) {
				return retry.Permanent(err)
			}
			return err
		})
	})
}

// Invalidate drops every cached dashboard.
func (d *DashboardCache) Invalidate(ctx context.Context) (int, error) {
	var removed int
	err := d.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		removed, err = d.cache.DeleteByPattern(ctx, d.DashboardKey("*"))
		return err
	})
	return removed, err
}
