package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
)

// EffectiveClassRepository is an in-memory effectiveclass.Repository.
type EffectiveClassRepository struct {
	mu      sync.RWMutex
	classes map[effectiveclass.Identity]effectiveclass.EffectiveClass
}

var _ effectiveclass.Repository = (*EffectiveClassRepository)(nil)

// NewEffectiveClassRepository creates an empty repository, optionally seeded.
func NewEffectiveClassRepository(classes ...*effectiveclass.EffectiveClass) *EffectiveClassRepository {
	r := &EffectiveClassRepository{classes: make(map[effectiveclass.Identity]effectiveclass.EffectiveClass)}
	for _, c := range classes {
		r.classes[c.Identity] = *c
	}
	return r
}

func (r *EffectiveClassRepository) Get(_ context.Context, id effectiveclass.Identity) (*effectiveclass.EffectiveClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[id]
	if !ok {
		return nil, effectiveclass.ErrEffectiveClassNotFound
	}
	return &c, nil
}

func (r *EffectiveClassRepository) Search(_ context.Context, filter effectiveclass.SearchFilter) ([]*effectiveclass.EffectiveClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*effectiveclass.EffectiveClass, 0)
	for _, c := range r.classes {
		c := c
		if filter.Matches(&c) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompleteAcronym() < out[j].CompleteAcronym() })
	return out, nil
}

func (r *EffectiveClassRepository) Save(_ context.Context, class *effectiveclass.EffectiveClass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classes[class.Identity] = *class
	return nil
}

func (r *EffectiveClassRepository) Delete(_ context.Context, id effectiveclass.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.classes, id)
	return nil
}

func (r *EffectiveClassRepository) GetAllIdentities(_ context.Context) ([]effectiveclass.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]effectiveclass.Identity, 0, len(r.classes))
	for id := range r.classes {
		ids = append(ids, id)
	}
	return ids, nil
}
