package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE EFFECTIVE CLASS COMMAND
// A class can be deleted only when no student is enrolled in its learning
// unit and no tutor teaches on it.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteEffectiveClassCommand identifies the class to delete.
type DeleteEffectiveClassCommand struct {
	ClassCode        string
	LearningUnitCode string
	Year             int
}

// Validate validates the command shape.
func (c DeleteEffectiveClassCommand) Validate() error {
	if err := validateLearningUnitShape("delete_class", c.LearningUnitCode, c.Year); err != nil {
		return err
	}
	if strings.TrimSpace(c.ClassCode) == "" {
		return fmt.Errorf("%w: delete_class: class_code required", ErrInvalidCommand)
	}
	return nil
}

// CanDeleteEffectiveClassCommand asks whether the class could be deleted.
type CanDeleteEffectiveClassCommand = DeleteEffectiveClassCommand

// DeleteEffectiveClassResult identifies the deleted class.
type DeleteEffectiveClassResult struct {
	Class effectiveclass.Identity
}

// DeleteEffectiveClassHandler handles the delete and can-delete commands.
type DeleteEffectiveClassHandler struct {
	classes     effectiveclass.Repository
	units       learningunit.Repository
	assigned    effectiveclass.TutorAssignedService
	enrollments effectiveclass.EnrollmentService
	log         *logger.Logger
}

// NewDeleteEffectiveClassHandler creates a new DeleteEffectiveClassHandler.
// Assigned tutors are looked up in tutors; enrollments come from units.
func NewDeleteEffectiveClassHandler(
	classes effectiveclass.Repository,
	units learningunit.Repository,
	tutors attribution.TutorRepository,
	log *logger.Logger,
) *DeleteEffectiveClassHandler {
	return &DeleteEffectiveClassHandler{
		classes:     classes,
		units:       units,
		assigned:    attribution.NewAssignedTutors(tutors),
		enrollments: units,
		log:         orNop(log).With(logger.Component("delete_class")),
	}
}

// CanDelete returns nil when the class may be deleted, or every reason it
// may not.
func (h *DeleteEffectiveClassHandler) CanDelete(ctx context.Context, cmd CanDeleteEffectiveClassCommand) error {
	_, err := h.verify(ctx, cmd)
	return err
}

// Handle deletes the class after verifying it may be deleted.
func (h *DeleteEffectiveClassHandler) Handle(
	ctx context.Context,
	cmd DeleteEffectiveClassCommand,
) (result *DeleteEffectiveClassResult, err error) {
	fields := []logger.Field{
		logger.LearningUnit(cmd.LearningUnitCode, cmd.Year),
		logger.ClassCode(cmd.ClassCode),
	}
	defer func() { logOutcome(h.log, "effective class deleted", err, fields...) }()

	class, err := h.verify(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if err := h.classes.Delete(ctx, class.Identity); err != nil {
		return nil, fmt.Errorf("delete class %s: %w", class.Identity, err)
	}

	return &DeleteEffectiveClassResult{Class: class.Identity}, nil
}

func (h *DeleteEffectiveClassHandler) verify(ctx context.Context, cmd DeleteEffectiveClassCommand) (*effectiveclass.EffectiveClass, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	classID, err := effectiveclass.BuildIdentity(cmd.ClassCode, cmd.LearningUnitCode, cmd.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	lu, err := loadLearningUnit(ctx, h.units, classID.LearningUnit)
	if err != nil {
		return nil, err
	}
	class, err := h.classes.Get(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("load class %s: %w", classID, err)
	}

	if err := effectiveclass.VerifyDeletable(ctx, class, lu, h.assigned, h.enrollments); err != nil {
		return nil, err
	}
	return class, nil
}
