package learningunit

import (
	"context"
	"fmt"

	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the persistence contract for learning units.
type Repository interface {
	// Get returns the learning unit for the identity.
	// Returns ErrLearningUnitNotFound if it does not exist.
	Get(ctx context.Context, id Identity) (*LearningUnit, error)

	// Save creates or replaces a learning unit.
	Save(ctx context.Context, lu *LearningUnit) error

	// HasProposalThisYearOrInPast reports whether a proposal exists for the
	// unit's code in its year or any earlier one.
	HasProposalThisYearOrInPast(ctx context.Context, lu *LearningUnit) (bool, error)

	// HasEnrollments reports whether students are enrolled in the unit.
	HasEnrollments(ctx context.Context, lu *LearningUnit) (bool, error)

	// GetAllIdentities returns every known learning unit identity.
	GetAllIdentities(ctx context.Context) ([]Identity, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// ErrLearningUnitNotFound is returned by repositories for unknown identities.
var ErrLearningUnitNotFound = shared.NewDomainError("learning_unit", "Get", shared.ErrNotFound, "learning unit not found")

// NotExistingError is the business error raised when a use case targets a
// learning unit that does not exist for the requested year.
type NotExistingError struct {
	Code string
	Year shared.AcademicYear
}

func (e *NotExistingError) Error() string {
	return fmt.Sprintf("learning unit %s does not exist for %s", e.Code, e.Year)
}

// Is matches shared.ErrBusiness and shared.ErrNotFound.
func (e *NotExistingError) Is(target error) bool {
	return target == shared.ErrBusiness || target == shared.ErrNotFound
}
