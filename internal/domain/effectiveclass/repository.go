package effectiveclass

import (
	"context"

	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the persistence contract for effective classes.
type Repository interface {
	// Get returns the class for the identity.
	// Returns ErrEffectiveClassNotFound if it does not exist.
	Get(ctx context.Context, id Identity) (*EffectiveClass, error)

	// Search returns the classes matching the filter. A zero filter returns all.
	Search(ctx context.Context, filter SearchFilter) ([]*EffectiveClass, error)

	// Save creates or replaces a class.
	Save(ctx context.Context, class *EffectiveClass) error

	// Delete removes a class. Deleting an unknown identity is not an error.
	Delete(ctx context.Context, id Identity) error

	// GetAllIdentities returns every known class identity.
	GetAllIdentities(ctx context.Context) ([]Identity, error)
}

// SearchFilter restricts Repository.Search.
type SearchFilter struct {
	Identities   []Identity
	LearningUnit *learningunit.Identity
}

// Matches reports whether the class passes the filter.
func (f SearchFilter) Matches(c *EffectiveClass) bool {
	if f.LearningUnit != nil && c.Identity.LearningUnit != *f.LearningUnit {
		return false
	}
	if len(f.Identities) == 0 {
		return true
	}
	for _, id := range f.Identities {
		if id == c.Identity {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN SERVICE PORTS
// ══════════════════════════════════════════════════════════════════════════════

// TutorAssignedService lists who teaches on a class.
type TutorAssignedService interface {
	// AssignedTutorFullNames returns the full name of every tutor holding a
	// volume repartition on the class.
	AssignedTutorFullNames(ctx context.Context, id Identity) ([]string, error)
}

// EnrollmentService tells whether students are enrolled in a learning unit.
// learningunit.Repository satisfies it.
type EnrollmentService interface {
	HasEnrollments(ctx context.Context, lu *learningunit.LearningUnit) (bool, error)
}
