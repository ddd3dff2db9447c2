package redis

import (
	"context"
	"errors"
	"time"

	"github.com/osis-hub/osis-attribution/pkg/circuitbreaker"
)

// BreakerStore guards a Store with a circuit breaker so that an unreachable
// Redis costs one fast rejection per call instead of a dial timeout.
//
// Get and Set go through the breaker; a miss is not a failure. Delete always
// reaches the store: skipping an invalidation could serve a stale tutor once
// Redis is back.
type BreakerStore struct {
	store   Store
	breaker *circuitbreaker.CircuitBreaker
}

var _ Store = (*BreakerStore)(nil)

// NewBreakerStore wraps store. A nil breaker gets circuitbreaker.CacheBreaker defaults.
func NewBreakerStore(store Store, breaker *circuitbreaker.CircuitBreaker) *BreakerStore {
	if breaker == nil {
		breaker = circuitbreaker.CacheBreaker("tutor-cache", nil)
	}
	return &BreakerStore{store: store, breaker: breaker}
}

func (s *BreakerStore) Get(ctx context.Context, key string, dest any) error {
	var miss bool
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		err := s.store.Get(ctx, key, dest)
		if errors.Is(err, ErrCacheMiss) {
			miss = true
			return nil
		}
		return err
	})
	if miss {
		return ErrCacheMiss
	}
	return err
}

func (s *BreakerStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.store.Set(ctx, key, value, ttl)
	})
}

func (s *BreakerStore) Delete(ctx context.Context, keys ...string) error {
	return s.store.Delete(ctx, keys...)
}
