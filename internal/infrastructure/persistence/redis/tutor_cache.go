package redis

import (
	"context"
	"errors"
	"time"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/infrastructure/persistence/txscope"
	"github.com/osis-hub/osis-attribution/pkg/circuitbreaker"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

// Store is the key/value surface CachedTutorRepository needs; *Cache implements it.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

var _ Store = (*Cache)(nil)

// CachedTutorRepository caches tutor aggregates in front of another
// TutorRepository. Get reads through; Save and Delete write to the inner
// repository first and then drop the cached entry. Cache failures are logged
// and never fail the call.
//
// Inside a write transaction (txscope.Active) Get always reads the inner
// repository, because a saved aggregate is diffed against storage and must
// not come from a stale entry. Invalidation waits for the commit so a
// concurrent reader cannot re-cache rows the transaction is replacing.
type CachedTutorRepository struct {
	inner attribution.TutorRepository
	store Store
	ttl   time.Duration
	log   *logger.Logger
}

var _ attribution.TutorRepository = (*CachedTutorRepository)(nil)

// NewCachedTutorRepository wraps inner. A non-positive ttl falls back to TTLTutorCache.
func NewCachedTutorRepository(inner attribution.TutorRepository, store Store, ttl time.Duration, log *logger.Logger) *CachedTutorRepository {
	if ttl <= 0 {
		ttl = TTLTutorCache
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedTutorRepository{
		inner: inner,
		store: store,
		ttl:   ttl,
		log:   log.With(logger.Component("tutor_cache")),
	}
}

// Get returns the cached tutor, loading and caching it on a miss.
func (r *CachedTutorRepository) Get(ctx context.Context, id attribution.TutorIdentity) (*attribution.Tutor, error) {
	if txscope.Active(ctx) {
		return r.inner.Get(ctx, id)
	}

	key := TutorKey(id.PersonalIDNumber)

	var dto attribution.TutorDTO
	err := r.store.Get(ctx, key, &dto)
	switch {
	case err == nil:
		tutor, convErr := attribution.TutorFromDTO(dto)
		if convErr == nil {
			return tutor, nil
		}
		r.log.Warn("dropping unreadable cache entry", logger.TutorID(id.PersonalIDNumber), logger.Err(convErr))
		r.invalidate(ctx, id)
	case circuitbreaker.IsRejected(err):
		r.log.Debug("cache skipped", logger.TutorID(id.PersonalIDNumber), logger.Err(err))
	case !errors.Is(err, ErrCacheMiss):
		r.log.Warn("cache read failed", logger.TutorID(id.PersonalIDNumber), logger.Err(err))
	}

	tutor, err := r.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.store.Set(ctx, key, tutor.ToDTO(), r.ttl); err != nil && !circuitbreaker.IsRejected(err) {
		r.log.Warn("cache write failed", logger.TutorID(id.PersonalIDNumber), logger.Err(err))
	}

	return tutor, nil
}

// Search is not cached: filters span many tutors.
func (r *CachedTutorRepository) Search(ctx context.Context, filter attribution.TutorFilter) ([]*attribution.Tutor, error) {
	return r.inner.Search(ctx, filter)
}

// Save writes through and invalidates the cached entry.
func (r *CachedTutorRepository) Save(ctx context.Context, tutor *attribution.Tutor) error {
	if err := r.inner.Save(ctx, tutor); err != nil {
		return err
	}
	r.invalidateAfterCommit(ctx, tutor.Identity)
	return nil
}

// Delete removes the tutor and its cached entry.
func (r *CachedTutorRepository) Delete(ctx context.Context, id attribution.TutorIdentity) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidateAfterCommit(ctx, id)
	return nil
}

// invalidateAfterCommit drops the cached entry once the transaction bound
// to ctx commits, or right away when there is none.
func (r *CachedTutorRepository) invalidateAfterCommit(ctx context.Context, id attribution.TutorIdentity) {
	deferred := txscope.AfterCommit(ctx, func(ctx context.Context) {
		r.invalidate(ctx, id)
	})
	if !deferred {
		r.invalidate(ctx, id)
	}
}

func (r *CachedTutorRepository) invalidate(ctx context.Context, id attribution.TutorIdentity) {
	if err := r.store.Delete(ctx, TutorKey(id.PersonalIDNumber)); err != nil {
		r.log.Warn("cache invalidation failed", logger.TutorID(id.PersonalIDNumber), logger.Err(err))
	}
}
