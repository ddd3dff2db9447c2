package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISTRIBUTE CLASS TO TUTOR COMMAND
// Gives a tutor part of a class volume under one of their attributions.
// ══════════════════════════════════════════════════════════════════════════════

// DistributeClassToTutorCommand contains the data to distribute a class volume.
type DistributeClassToTutorCommand struct {
	TutorPersonalIDNumber       string
	LearningUnitAttributionUUID string
	ClassCode                   string
	LearningUnitCode            string
	Year                        int

	// DistributedVolume is the raw user input; it is checked to be numeric
	// before any business rule runs.
	DistributedVolume string
}

// Validate validates the command shape.
func (c DistributeClassToTutorCommand) Validate() error {
	return validateDistributionShape("distribute_class", c.TutorPersonalIDNumber, c.LearningUnitAttributionUUID,
		c.ClassCode, c.LearningUnitCode, c.Year)
}

// DistributeClassToTutorResult identifies the tutor that was updated.
type DistributeClassToTutorResult struct {
	Tutor attribution.TutorIdentity
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// DistributeClassToTutorHandler handles the DistributeClassToTutorCommand.
type DistributeClassToTutorHandler struct {
	tutors  attribution.TutorRepository
	targets distributionTargetLoader
	log     *logger.Logger
}

// NewDistributeClassToTutorHandler creates a new DistributeClassToTutorHandler.
func NewDistributeClassToTutorHandler(
	tutors attribution.TutorRepository,
	classes effectiveclass.Repository,
	units learningunit.Repository,
	attributions attribution.TutorAttributionTranslator,
	log *logger.Logger,
) *DistributeClassToTutorHandler {
	return &DistributeClassToTutorHandler{
		tutors:  tutors,
		targets: distributionTargetLoader{units: units, classes: classes, attributions: attributions},
		log:     orNop(log).With(logger.Component("distribute_class")),
	}
}

// Handle executes the distribute command.
func (h *DistributeClassToTutorHandler) Handle(
	ctx context.Context,
	cmd DistributeClassToTutorCommand,
) (result *DistributeClassToTutorResult, err error) {
	fields := []logger.Field{
		logger.TutorID(cmd.TutorPersonalIDNumber),
		logger.LearningUnit(cmd.LearningUnitCode, cmd.Year),
		logger.ClassCode(cmd.ClassCode),
		logger.AttributionUUID(cmd.LearningUnitAttributionUUID),
		logger.String("volume", cmd.DistributedVolume),
	}
	defer func() { logOutcome(h.log, "class volume distributed", err, fields...) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	target, err := h.targets.load(ctx, cmd.ClassCode, cmd.LearningUnitCode, cmd.Year, cmd.LearningUnitAttributionUUID)
	if err != nil {
		return nil, err
	}

	tutorID, err := attribution.NewTutorIdentity(cmd.TutorPersonalIDNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if target.Attribution.Tutor != tutorID {
		return nil, fmt.Errorf("%w: attribution %s does not belong to tutor %s",
			ErrInvalidCommand, target.Attribution.Attribution, tutorID)
	}

	tutor, err := h.tutors.Get(ctx, tutorID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		tutor = attribution.NewTutor(tutorID, target.Attribution.FirstName, target.Attribution.LastName)
	case err != nil:
		return nil, fmt.Errorf("load tutor %s: %w", tutorID, err)
	}

	if err := tutor.AssignClass(target, cmd.DistributedVolume); err != nil {
		return nil, err
	}

	if err := h.tutors.Save(ctx, tutor); err != nil {
		return nil, fmt.Errorf("save tutor %s: %w", tutorID, err)
	}

	return &DistributeClassToTutorResult{Tutor: tutorID}, nil
}

func validateDistributionShape(op, tutorID, attributionUUID, classCode, luCode string, year int) error {
	var missing []string
	if strings.TrimSpace(tutorID) == "" {
		missing = append(missing, "tutor_personal_id_number")
	}
	if strings.TrimSpace(attributionUUID) == "" {
		missing = append(missing, "learning_unit_attribution_uuid")
	}
	if strings.TrimSpace(classCode) == "" {
		missing = append(missing, "class_code")
	}
	if strings.TrimSpace(luCode) == "" {
		missing = append(missing, "learning_unit_code")
	}
	if year == 0 {
		missing = append(missing, "year")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: %s required", ErrInvalidCommand, op, strings.Join(missing, ", "))
	}
	return nil
}
