// Package inmemory implements every repository port with plain maps. Each
// repository owns its state; tests build fresh ones instead of sharing
// fixtures. Values are copied on the way in and out so callers cannot
// mutate stored aggregates without saving them.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// LearningUnitRepository is an in-memory learningunit.Repository.
type LearningUnitRepository struct {
	mu          sync.RWMutex
	units       map[learningunit.Identity]learningunit.LearningUnit
	proposals   map[string][]shared.AcademicYear
	enrollments map[learningunit.Identity]bool
}

var _ learningunit.Repository = (*LearningUnitRepository)(nil)

// NewLearningUnitRepository creates an empty repository, optionally seeded.
func NewLearningUnitRepository(units ...*learningunit.LearningUnit) *LearningUnitRepository {
	r := &LearningUnitRepository{
		units:       make(map[learningunit.Identity]learningunit.LearningUnit),
		proposals:   make(map[string][]shared.AcademicYear),
		enrollments: make(map[learningunit.Identity]bool),
	}
	for _, lu := range units {
		r.units[lu.Identity] = copyLearningUnit(lu)
	}
	return r
}

func (r *LearningUnitRepository) Get(_ context.Context, id learningunit.Identity) (*learningunit.LearningUnit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lu, ok := r.units[id]
	if !ok {
		return nil, learningunit.ErrLearningUnitNotFound
	}
	out := copyLearningUnit(&lu)
	return &out, nil
}

func (r *LearningUnitRepository) Save(_ context.Context, lu *learningunit.LearningUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.units[lu.Identity] = copyLearningUnit(lu)
	return nil
}

func (r *LearningUnitRepository) HasProposalThisYearOrInPast(_ context.Context, lu *learningunit.LearningUnit) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, year := range r.proposals[lu.Identity.Code] {
		if year <= lu.Identity.Year {
			return true, nil
		}
	}
	return false, nil
}

func (r *LearningUnitRepository) HasEnrollments(_ context.Context, lu *learningunit.LearningUnit) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.enrollments[lu.Identity], nil
}

func (r *LearningUnitRepository) GetAllIdentities(_ context.Context) ([]learningunit.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]learningunit.Identity, 0, len(r.units))
	for id := range r.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Code != ids[j].Code {
			return ids[i].Code < ids[j].Code
		}
		return ids[i].Year < ids[j].Year
	})
	return ids, nil
}

// AddProposal records a proposal on the code for the year.
func (r *LearningUnitRepository) AddProposal(code string, year shared.AcademicYear) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.proposals[code] = append(r.proposals[code], year)
}

// SetEnrollments marks the unit as having enrolled students or not.
func (r *LearningUnitRepository) SetEnrollments(id learningunit.Identity, enrolled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enrollments[id] = enrolled
}

func copyLearningUnit(lu *learningunit.LearningUnit) learningunit.LearningUnit {
	out := *lu
	if lu.Partims != nil {
		out.Partims = append([]learningunit.Partim(nil), lu.Partims...)
	}
	if lu.External != nil {
		ext := *lu.External
		out.External = &ext
	}
	return out
}
