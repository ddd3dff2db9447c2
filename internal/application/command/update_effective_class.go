package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE EFFECTIVE CLASS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateEffectiveClassCommand replaces the mutable attributes of a class.
// The class code identifies the class and is not changed.
type UpdateEffectiveClassCommand struct {
	ClassCode                string
	LearningUnitCode         string
	Year                     int
	TitleFr                  string
	TitleEn                  string
	TeachingPlaceUUID        string
	TeachingPlaceName        string
	DerogationQuadrimester   string
	DerogationSession        string
	VolumeFirstQuadrimester  decimal.NullDecimal
	VolumeSecondQuadrimester decimal.NullDecimal
}

// Validate validates the command shape.
func (c UpdateEffectiveClassCommand) Validate() error {
	if err := validateLearningUnitShape("update_class", c.LearningUnitCode, c.Year); err != nil {
		return err
	}
	if strings.TrimSpace(c.ClassCode) == "" {
		return fmt.Errorf("%w: update_class: class_code required", ErrInvalidCommand)
	}
	return nil
}

func (c UpdateEffectiveClassCommand) params() effectiveclass.ClassParams {
	return classParams(c.ClassCode, c.TitleFr, c.TitleEn, c.TeachingPlaceUUID, c.TeachingPlaceName,
		c.DerogationQuadrimester, c.DerogationSession, c.VolumeFirstQuadrimester, c.VolumeSecondQuadrimester)
}

// UpdateEffectiveClassResult identifies the updated class.
type UpdateEffectiveClassResult struct {
	Class effectiveclass.Identity
}

// UpdateEffectiveClassHandler handles the UpdateEffectiveClassCommand.
type UpdateEffectiveClassHandler struct {
	classes effectiveclass.Repository
	units   learningunit.Repository
	log     *logger.Logger
}

// NewUpdateEffectiveClassHandler creates a new UpdateEffectiveClassHandler.
func NewUpdateEffectiveClassHandler(
	classes effectiveclass.Repository,
	units learningunit.Repository,
	log *logger.Logger,
) *UpdateEffectiveClassHandler {
	return &UpdateEffectiveClassHandler{
		classes: classes,
		units:   units,
		log:     orNop(log).With(logger.Component("update_class")),
	}
}

// Handle executes the update command.
func (h *UpdateEffectiveClassHandler) Handle(
	ctx context.Context,
	cmd UpdateEffectiveClassCommand,
) (result *UpdateEffectiveClassResult, err error) {
	fields := []logger.Field{
		logger.LearningUnit(cmd.LearningUnitCode, cmd.Year),
		logger.ClassCode(cmd.ClassCode),
	}
	defer func() { logOutcome(h.log, "effective class updated", err, fields...) }()

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

	if err := effectiveclass.Update(lu, class, cmd.params()); err != nil {
		return nil, err
	}

	if err := h.classes.Save(ctx, class); err != nil {
		return nil, fmt.Errorf("save class %s: %w", classID, err)
	}

	return &UpdateEffectiveClassResult{Class: classID}, nil
}
