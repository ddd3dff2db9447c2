package command

import (
	"context"
	"fmt"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDIT CLASS VOLUME REPARTITION COMMAND
// Changes the volume a tutor already teaches on a class.
// ══════════════════════════════════════════════════════════════════════════════

// EditClassVolumeRepartitionToTutorCommand has the shape of the distribute
// command; it targets an existing repartition.
type EditClassVolumeRepartitionToTutorCommand struct {
	TutorPersonalIDNumber       string
	LearningUnitAttributionUUID string
	ClassCode                   string
	LearningUnitCode            string
	Year                        int
	DistributedVolume           string
}

// Validate validates the command shape.
func (c EditClassVolumeRepartitionToTutorCommand) Validate() error {
	return validateDistributionShape("edit_class_volume", c.TutorPersonalIDNumber, c.LearningUnitAttributionUUID,
		c.ClassCode, c.LearningUnitCode, c.Year)
}

// EditClassVolumeRepartitionResult identifies the tutor that was updated.
type EditClassVolumeRepartitionResult struct {
	Tutor attribution.TutorIdentity
}

// EditClassVolumeRepartitionHandler handles the edit command.
type EditClassVolumeRepartitionHandler struct {
	tutors  attribution.TutorRepository
	targets distributionTargetLoader
	log     *logger.Logger
}

// NewEditClassVolumeRepartitionHandler creates a new handler.
func NewEditClassVolumeRepartitionHandler(
	tutors attribution.TutorRepository,
	classes effectiveclass.Repository,
	units learningunit.Repository,
	attributions attribution.TutorAttributionTranslator,
	log *logger.Logger,
) *EditClassVolumeRepartitionHandler {
	return &EditClassVolumeRepartitionHandler{
		tutors:  tutors,
		targets: distributionTargetLoader{units: units, classes: classes, attributions: attributions},
		log:     orNop(log).With(logger.Component("edit_class_volume")),
	}
}

// Handle executes the edit command. Editing a pair the tutor does not hold
// leaves the tutor unchanged.
func (h *EditClassVolumeRepartitionHandler) Handle(
	ctx context.Context,
	cmd EditClassVolumeRepartitionToTutorCommand,
) (result *EditClassVolumeRepartitionResult, err error) {
	fields := []logger.Field{
		logger.TutorID(cmd.TutorPersonalIDNumber),
		logger.LearningUnit(cmd.LearningUnitCode, cmd.Year),
		logger.ClassCode(cmd.ClassCode),
		logger.AttributionUUID(cmd.LearningUnitAttributionUUID),
		logger.String("volume", cmd.DistributedVolume),
	}
	defer func() { logOutcome(h.log, "class volume edited", err, fields...) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tutorID, err := attribution.NewTutorIdentity(cmd.TutorPersonalIDNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	tutor, err := h.tutors.Get(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("load tutor %s: %w", tutorID, err)
	}

	target, err := h.targets.load(ctx, cmd.ClassCode, cmd.LearningUnitCode, cmd.Year, cmd.LearningUnitAttributionUUID)
	if err != nil {
		return nil, err
	}

	if err := tutor.EditClassVolume(target, cmd.DistributedVolume); err != nil {
		return nil, err
	}

	if err := h.tutors.Save(ctx, tutor); err != nil {
		return nil, fmt.Errorf("save tutor %s: %w", tutorID, err)
	}

	return &EditClassVolumeRepartitionResult{Tutor: tutorID}, nil
}
