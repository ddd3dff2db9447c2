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
// CREATE EFFECTIVE CLASS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateEffectiveClassCommand contains the data of a new class.
type CreateEffectiveClassCommand struct {
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

// Validate validates the command shape. The class code itself is checked
// by the domain so that its error is reported with the others.
func (c CreateEffectiveClassCommand) Validate() error {
	return validateLearningUnitShape("create_class", c.LearningUnitCode, c.Year)
}

func (c CreateEffectiveClassCommand) params() effectiveclass.ClassParams {
	return classParams(c.ClassCode, c.TitleFr, c.TitleEn, c.TeachingPlaceUUID, c.TeachingPlaceName,
		c.DerogationQuadrimester, c.DerogationSession, c.VolumeFirstQuadrimester, c.VolumeSecondQuadrimester)
}

// CreateEffectiveClassResult identifies the created class.
type CreateEffectiveClassResult struct {
	Class           effectiveclass.Identity
	CompleteAcronym string
}

// CreateEffectiveClassHandler handles the CreateEffectiveClassCommand.
type CreateEffectiveClassHandler struct {
	classes effectiveclass.Repository
	units   learningunit.Repository
	log     *logger.Logger
}

// NewCreateEffectiveClassHandler creates a new CreateEffectiveClassHandler.
func NewCreateEffectiveClassHandler(
	classes effectiveclass.Repository,
	units learningunit.Repository,
	log *logger.Logger,
) *CreateEffectiveClassHandler {
	return &CreateEffectiveClassHandler{
		classes: classes,
		units:   units,
		log:     orNop(log).With(logger.Component("create_class")),
	}
}

// Handle executes the create command.
func (h *CreateEffectiveClassHandler) Handle(
	ctx context.Context,
	cmd CreateEffectiveClassCommand,
) (result *CreateEffectiveClassResult, err error) {
	fields := []logger.Field{
		logger.LearningUnit(cmd.LearningUnitCode, cmd.Year),
		logger.ClassCode(cmd.ClassCode),
	}
	defer func() { logOutcome(h.log, "effective class created", err, fields...) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	luID, err := learningunit.NewIdentity(cmd.LearningUnitCode, cmd.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	lu, err := loadLearningUnit(ctx, h.units, luID)
	if err != nil {
		return nil, err
	}

	checks, err := learningUnitChecks(ctx, h.units, lu)
	if err != nil {
		return nil, err
	}
	existing, err := h.classes.GetAllIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list class identities: %w", err)
	}

	class, err := effectiveclass.Create(lu, cmd.params(), existing, checks)
	if err != nil {
		return nil, err
	}

	if err := h.classes.Save(ctx, class); err != nil {
		return nil, fmt.Errorf("save class %s: %w", class.Identity, err)
	}

	return &CreateEffectiveClassResult{Class: class.Identity, CompleteAcronym: class.CompleteAcronym()}, nil
}

func classParams(
	classCode, titleFr, titleEn, placeUUID, placeName, quadrimester, session string,
	q1, q2 decimal.NullDecimal,
) effectiveclass.ClassParams {
	return effectiveclass.ClassParams{
		ClassCode: classCode,
		TitleFr:   titleFr,
		TitleEn:   titleEn,
		TeachingPlace: effectiveclass.TeachingPlace{
			UUID: strings.TrimSpace(placeUUID),
			Name: strings.TrimSpace(placeName),
		},
		DerogationQuadrimester:   learningunit.Quadrimester(strings.TrimSpace(quadrimester)),
		DerogationSession:        learningunit.Session(strings.TrimSpace(session)),
		VolumeFirstQuadrimester:  q1,
		VolumeSecondQuadrimester: q2,
	}
}

func validateLearningUnitShape(op, luCode string, year int) error {
	var missing []string
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
