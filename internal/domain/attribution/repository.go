package attribution

import (
	"context"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// TutorRepository defines the persistence contract for tutors.
type TutorRepository interface {
	// Get returns the tutor and its repartitions.
	// Returns ErrTutorNotFound if the tutor is unknown.
	Get(ctx context.Context, id TutorIdentity) (*Tutor, error)

	// Search returns the tutors matching the filter.
	Search(ctx context.Context, filter TutorFilter) ([]*Tutor, error)

	// Save writes the tutor's repartitions: new pairs are inserted, known
	// pairs updated and pairs no longer present removed.
	Save(ctx context.Context, tutor *Tutor) error

	// Delete removes the tutor and all of its repartitions.
	Delete(ctx context.Context, id TutorIdentity) error
}

// TutorFilter restricts TutorRepository.Search. Zero fields are ignored.
type TutorFilter struct {
	Identities     []TutorIdentity
	EffectiveClass *effectiveclass.Identity
	LearningUnit   *learningunit.Identity
}

// Matches reports whether the tutor passes the filter.
func (f TutorFilter) Matches(t *Tutor) bool {
	if len(f.Identities) > 0 {
		found := false
		for _, id := range f.Identities {
			if id == t.Identity {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.EffectiveClass != nil && !t.IsAssignedTo(*f.EffectiveClass) {
		return false
	}
	if f.LearningUnit != nil {
		found := false
		for _, r := range t.repartitions {
			if r.EffectiveClass.LearningUnit == *f.LearningUnit {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TutorAttributionTranslator resolves attribution contracts, which are
// owned by the wider attribution domain.
type TutorAttributionTranslator interface {
	// SearchAttributionsToLearningUnit returns every attribution on the unit.
	SearchAttributionsToLearningUnit(ctx context.Context, lu learningunit.Identity) ([]TutorAttribution, error)

	// GetLearningUnitAttribution returns one attribution.
	// Returns ErrAttributionNotFound if it does not exist.
	GetLearningUnitAttribution(ctx context.Context, id AttributionIdentity) (TutorAttribution, error)

	// GetByTeacher returns the attributions of a tutor for a year.
	GetByTeacher(ctx context.Context, tutor TutorIdentity, year int) ([]TutorAttribution, error)
}
