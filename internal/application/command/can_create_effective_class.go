package command

import (
	"context"
	"fmt"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
)

// CanCreateEffectiveClassCommand asks whether a learning unit accepts classes.
type CanCreateEffectiveClassCommand struct {
	LearningUnitCode string
	Year             int
}

// Validate validates the command shape.
func (c CanCreateEffectiveClassCommand) Validate() error {
	return validateLearningUnitShape("can_create_class", c.LearningUnitCode, c.Year)
}

// CanCreateEffectiveClassHandler answers CanCreateEffectiveClassCommand.
type CanCreateEffectiveClassHandler struct {
	units learningunit.Repository
}

// NewCanCreateEffectiveClassHandler creates a new CanCreateEffectiveClassHandler.
func NewCanCreateEffectiveClassHandler(units learningunit.Repository) *CanCreateEffectiveClassHandler {
	return &CanCreateEffectiveClassHandler{units: units}
}

// Handle returns nil when classes can be created on the learning unit, or
// every reason they cannot.
func (h *CanCreateEffectiveClassHandler) Handle(ctx context.Context, cmd CanCreateEffectiveClassCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	luID, err := learningunit.NewIdentity(cmd.LearningUnitCode, cmd.Year)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	lu, err := loadLearningUnit(ctx, h.units, luID)
	if err != nil {
		return err
	}
	checks, err := learningUnitChecks(ctx, h.units, lu)
	if err != nil {
		return err
	}
	return effectiveclass.CanCreate(lu, checks)
}
