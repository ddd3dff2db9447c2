package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/infrastructure/persistence/inmemory"
	"github.com/osis-hub/osis-attribution/internal/infrastructure/persistence/txscope"
	"github.com/osis-hub/osis-attribution/pkg/circuitbreaker"
)

// mapStore is a Store that keeps JSON payloads in a map, like Redis would.
type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	gets    int
	failGet bool
	failSet bool
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (s *mapStore) Get(_ context.Context, key string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets++
	if s.failGet {
		return errors.New("connection refused")
	}
	data, ok := s.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (s *mapStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSet {
		return errors.New("connection refused")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = data
	s.ttls[key] = ttl
	return nil
}

func (s *mapStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *mapStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[key]
	return ok
}

func seededTutor() *attribution.Tutor {
	return attribution.NewTutor(
		attribution.TutorIdentity{PersonalIDNumber: "00321234"},
		"Marie", "Curie",
		attribution.ClassVolumeRepartition{
			EffectiveClass: effectiveclass.Identity{
				ClassCode:    "A",
				LearningUnit: learningunit.Identity{Code: "LDROI1001", Year: 2020},
			},
			Attribution:       attribution.AttributionIdentity{UUID: "2f1c9a5e-3b1d-4b55-8a38-6f3c5d1f0a01"},
			DistributedVolume: decimal.NewFromInt(10),
		},
	)
}

func TestTutorKey(t *testing.T) {
	assert.Equal(t, "osis:tutor:00321234", TutorKey("00321234"))
}

func TestCachedTutorRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	tutor := seededTutor()
	store := newMapStore()
	repo := NewCachedTutorRepository(inmemory.NewTutorRepository(tutor), store, 0, nil)

	first, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)
	assert.True(t, store.has(TutorKey("00321234")))
	assert.Equal(t, TTLTutorCache, store.ttls[TutorKey("00321234")])

	second, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)
	assert.Equal(t, first.ToDTO(), second.ToDTO())
	assert.Equal(t, "CURIE Marie", second.FullName())
}

func TestCachedTutorRepository_SaveInvalidates(t *testing.T) {
	ctx := context.Background()
	tutor := seededTutor()
	store := newMapStore()
	repo := NewCachedTutorRepository(inmemory.NewTutorRepository(tutor), store, time.Minute, nil)

	loaded, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)

	loaded.UnassignClass("A", "2f1c9a5e-3b1d-4b55-8a38-6f3c5d1f0a01")
	require.NoError(t, repo.Save(ctx, loaded))
	assert.False(t, store.has(TutorKey("00321234")))

	reloaded, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Repartitions())
}

func TestCachedTutorRepository_DeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	tutor := seededTutor()
	store := newMapStore()
	repo := NewCachedTutorRepository(inmemory.NewTutorRepository(tutor), store, time.Minute, nil)

	_, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, tutor.Identity))

	_, err = repo.Get(ctx, tutor.Identity)
	assert.ErrorIs(t, err, attribution.ErrTutorNotFound)
	assert.False(t, store.has(TutorKey("00321234")))
}

func TestCachedTutorRepository_StaleEntryDoesNotSurviveCommit(t *testing.T) {
	ctx := context.Background()
	tutor := seededTutor()
	store := newMapStore()
	repo := NewCachedTutorRepository(inmemory.NewTutorRepository(tutor), store, time.Minute, nil)

	before, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)
	stale := before.ToDTO()

	txCtx, scope := txscope.Begin(ctx)
	loaded, err := repo.Get(txCtx, tutor.Identity)
	require.NoError(t, err)
	loaded.UnassignClass("A", "2f1c9a5e-3b1d-4b55-8a38-6f3c5d1f0a01")
	require.NoError(t, repo.Save(txCtx, loaded))

	// Another process reads the previous rows and caches them before the commit.
	require.NoError(t, store.Set(ctx, TutorKey("00321234"), stale, time.Minute))
	assert.True(t, store.has(TutorKey("00321234")))

	scope.Committed(ctx)
	assert.False(t, store.has(TutorKey("00321234")))

	reloaded, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Repartitions())
}

func TestCachedTutorRepository_GetInTransactionSkipsCache(t *testing.T) {
	ctx := context.Background()
	tutor := seededTutor()
	store := newMapStore()
	require.NoError(t, store.Set(ctx, TutorKey("00321234"), tutor.ToDTO(), time.Minute))

	current := attribution.NewTutor(tutor.Identity, "Marie", "Curie")
	repo := NewCachedTutorRepository(inmemory.NewTutorRepository(current), store, time.Minute, nil)

	txCtx, _ := txscope.Begin(ctx)
	loaded, err := repo.Get(txCtx, tutor.Identity)
	require.NoError(t, err)

	assert.Empty(t, loaded.Repartitions())
	assert.Equal(t, 0, store.gets)

	var cached attribution.TutorDTO
	require.NoError(t, store.Get(ctx, TutorKey("00321234"), &cached))
	assert.Len(t, cached.Repartitions, 1)
}

func TestCachedTutorRepository_RollbackKeepsEntry(t *testing.T) {
	ctx := context.Background()
	tutor := seededTutor()
	store := newMapStore()
	repo := NewCachedTutorRepository(inmemory.NewTutorRepository(tutor), store, time.Minute, nil)

	_, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)

	txCtx, scope := txscope.Begin(ctx)
	require.NoError(t, repo.Delete(txCtx, tutor.Identity))
	scope.Discard()

	assert.True(t, store.has(TutorKey("00321234")))
}

func TestCachedTutorRepository_CacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	tutor := seededTutor()
	store := newMapStore()
	store.failGet = true
	repo := NewCachedTutorRepository(inmemory.NewTutorRepository(tutor), store, time.Minute, nil)

	loaded, err := repo.Get(ctx, tutor.Identity)
	require.NoError(t, err)
	assert.Len(t, loaded.Repartitions(), 1)
}

func TestCachedTutorRepository_MissingTutorIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	repo := NewCachedTutorRepository(inmemory.NewTutorRepository(), store, time.Minute, nil)

	_, err := repo.Get(ctx, attribution.TutorIdentity{PersonalIDNumber: "99999999"})
	assert.ErrorIs(t, err, attribution.ErrTutorNotFound)
	assert.False(t, store.has(TutorKey("99999999")))
}

func TestBreakerStore_StopsCallingAFailingStore(t *testing.T) {
	ctx := context.Background()
	tutor := seededTutor()
	store := newMapStore()
	store.failGet = true
	store.failSet = true
	repo := NewCachedTutorRepository(
		inmemory.NewTutorRepository(tutor),
		NewBreakerStore(store, circuitbreaker.New("tutor-cache", circuitbreaker.WithFailureThreshold(2))),
		time.Minute, nil,
	)

	for i := 0; i < 4; i++ {
		loaded, err := repo.Get(ctx, tutor.Identity)
		require.NoError(t, err)
		assert.Equal(t, "CURIE Marie", loaded.FullName())
	}
	assert.Equal(t, 1, store.gets)
}

func TestBreakerStore_MissIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	breaker := circuitbreaker.New("tutor-cache", circuitbreaker.WithFailureThreshold(1))
	bs := NewBreakerStore(store, breaker)

	var dto attribution.TutorDTO
	assert.ErrorIs(t, bs.Get(ctx, TutorKey("00321234"), &dto), ErrCacheMiss)
	assert.ErrorIs(t, bs.Get(ctx, TutorKey("00321234"), &dto), ErrCacheMiss)
	assert.Equal(t, circuitbreaker.StateClosed, breaker.State())
}

func TestBreakerStore_DeleteBypassesOpenCircuit(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	require.NoError(t, store.Set(ctx, TutorKey("00321234"), seededTutor().ToDTO(), time.Minute))
	store.failGet = true

	bs := NewBreakerStore(store, circuitbreaker.New("tutor-cache", circuitbreaker.WithFailureThreshold(1)))
	var dto attribution.TutorDTO
	require.Error(t, bs.Get(ctx, TutorKey("00321234"), &dto))
	assert.ErrorIs(t, bs.Set(ctx, TutorKey("00321234"), dto, time.Minute), circuitbreaker.ErrCircuitOpen)

	require.NoError(t, bs.Delete(ctx, TutorKey("00321234")))
	assert.False(t, store.has(TutorKey("00321234")))
}
