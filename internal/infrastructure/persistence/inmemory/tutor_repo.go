package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
)

// TutorRepository is an in-memory attribution.TutorRepository. Tutors are
// kept as DTOs, the same shape the database adapter reads.
type TutorRepository struct {
	mu     sync.RWMutex
	tutors map[attribution.TutorIdentity]attribution.TutorDTO
}

var _ attribution.TutorRepository = (*TutorRepository)(nil)

// NewTutorRepository creates an empty repository, optionally seeded.
func NewTutorRepository(tutors ...*attribution.Tutor) *TutorRepository {
	r := &TutorRepository{tutors: make(map[attribution.TutorIdentity]attribution.TutorDTO)}
	for _, t := range tutors {
		r.tutors[t.Identity] = t.ToDTO()
	}
	return r
}

func (r *TutorRepository) Get(_ context.Context, id attribution.TutorIdentity) (*attribution.Tutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dto, ok := r.tutors[id]
	if !ok {
		return nil, attribution.ErrTutorNotFound
	}
	return attribution.TutorFromDTO(dto)
}

func (r *TutorRepository) Search(_ context.Context, filter attribution.TutorFilter) ([]*attribution.Tutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*attribution.Tutor, 0)
	for _, dto := range r.tutors {
		t, err := attribution.TutorFromDTO(dto)
		if err != nil {
			return nil, err
		}
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity.PersonalIDNumber < out[j].Identity.PersonalIDNumber })
	return out, nil
}

func (r *TutorRepository) Save(_ context.Context, tutor *attribution.Tutor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tutors[tutor.Identity] = tutor.ToDTO()
	return nil
}

func (r *TutorRepository) Delete(_ context.Context, id attribution.TutorIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tutors, id)
	return nil
}
