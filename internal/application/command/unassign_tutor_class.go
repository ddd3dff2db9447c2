package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNASSIGN TUTOR CLASS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UnassignTutorClassCommand removes a tutor's repartition on a class.
type UnassignTutorClassCommand struct {
	TutorPersonalIDNumber       string
	LearningUnitAttributionUUID string
	ClassCode                   string
}

// Validate validates the command shape.
func (c UnassignTutorClassCommand) Validate() error {
	var missing []string
	if strings.TrimSpace(c.TutorPersonalIDNumber) == "" {
		missing = append(missing, "tutor_personal_id_number")
	}
	if strings.TrimSpace(c.LearningUnitAttributionUUID) == "" {
		missing = append(missing, "learning_unit_attribution_uuid")
	}
	if strings.TrimSpace(c.ClassCode) == "" {
		missing = append(missing, "class_code")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unassign_class: %s required", ErrInvalidCommand, strings.Join(missing, ", "))
	}
	return nil
}

// UnassignTutorClassResult tells whether a repartition was actually removed.
type UnassignTutorClassResult struct {
	Tutor   attribution.TutorIdentity
	Removed bool
}

// UnassignTutorClassHandler handles the UnassignTutorClassCommand.
type UnassignTutorClassHandler struct {
	tutors attribution.TutorRepository
	log    *logger.Logger
}

// NewUnassignTutorClassHandler creates a new UnassignTutorClassHandler.
func NewUnassignTutorClassHandler(tutors attribution.TutorRepository, log *logger.Logger) *UnassignTutorClassHandler {
	return &UnassignTutorClassHandler{
		tutors: tutors,
		log:    orNop(log).With(logger.Component("unassign_class")),
	}
}

// Handle executes the unassign command. Unassigning a class the tutor does
// not teach is a no-op.
func (h *UnassignTutorClassHandler) Handle(
	ctx context.Context,
	cmd UnassignTutorClassCommand,
) (result *UnassignTutorClassResult, err error) {
	fields := []logger.Field{
		logger.TutorID(cmd.TutorPersonalIDNumber),
		logger.ClassCode(cmd.ClassCode),
		logger.AttributionUUID(cmd.LearningUnitAttributionUUID),
	}
	defer func() { logOutcome(h.log, "class unassigned", err, fields...) }()

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

	if _, held := tutor.RepartitionFor(cmd.ClassCode, cmd.LearningUnitAttributionUUID); !held {
		return &UnassignTutorClassResult{Tutor: tutorID}, nil
	}

	tutor.UnassignClass(cmd.ClassCode, cmd.LearningUnitAttributionUUID)
	if err := h.tutors.Save(ctx, tutor); err != nil {
		return nil, fmt.Errorf("save tutor %s: %w", tutorID, err)
	}

	return &UnassignTutorClassResult{Tutor: tutorID, Removed: true}, nil
}
