// Package command contains the write use cases of the attribution core.
//
// Each use case loads its aggregates through repository ports, lets the
// domain validate and mutate them, and saves them back. Business errors are
// returned untouched so callers can inspect every violation.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

// ErrInvalidCommand wraps command shape errors caught before any lookup.
var ErrInvalidCommand = errors.New("invalid command")

// loadLearningUnit fetches the unit, turning a missing one into the
// business error users see.
func loadLearningUnit(ctx context.Context, units learningunit.Repository, id learningunit.Identity) (*learningunit.LearningUnit, error) {
	lu, err := units.Get(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, &learningunit.NotExistingError{Code: id.Code, Year: id.Year}
		}
		return nil, fmt.Errorf("load learning unit %s: %w", id, err)
	}
	return lu, nil
}

// learningUnitChecks gathers the repository facts class creation depends on.
func learningUnitChecks(ctx context.Context, units learningunit.Repository, lu *learningunit.LearningUnit) (effectiveclass.LearningUnitChecks, error) {
	hasProposal, err := units.HasProposalThisYearOrInPast(ctx, lu)
	if err != nil {
		return effectiveclass.LearningUnitChecks{}, fmt.Errorf("check proposals of %s: %w", lu.Identity, err)
	}
	hasEnrollments, err := units.HasEnrollments(ctx, lu)
	if err != nil {
		return effectiveclass.LearningUnitChecks{}, fmt.Errorf("check enrollments of %s: %w", lu.Identity, err)
	}
	return effectiveclass.LearningUnitChecks{HasProposal: hasProposal, HasEnrollments: hasEnrollments}, nil
}

// distributionTargetLoader resolves the class, unit and attribution a
// volume is distributed on.
type distributionTargetLoader struct {
	units        learningunit.Repository
	classes      effectiveclass.Repository
	attributions attribution.TutorAttributionTranslator
}

func (l distributionTargetLoader) load(
	ctx context.Context,
	classCode, learningUnitCode string,
	year int,
	attributionUUID string,
) (attribution.DistributionTarget, error) {
	classID, err := effectiveclass.BuildIdentity(classCode, learningUnitCode, year)
	if err != nil {
		return attribution.DistributionTarget{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	attributionID, err := attribution.NewAttributionIdentity(attributionUUID)
	if err != nil {
		return attribution.DistributionTarget{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	lu, err := loadLearningUnit(ctx, l.units, classID.LearningUnit)
	if err != nil {
		return attribution.DistributionTarget{}, err
	}
	class, err := l.classes.Get(ctx, classID)
	if err != nil {
		return attribution.DistributionTarget{}, fmt.Errorf("load class %s: %w", classID, err)
	}
	attr, err := l.attributions.GetLearningUnitAttribution(ctx, attributionID)
	if err != nil {
		return attribution.DistributionTarget{}, fmt.Errorf("load attribution %s: %w", attributionID, err)
	}

	return attribution.DistributionTarget{Class: class, LearningUnit: lu, Attribution: attr}, nil
}

// logOutcome logs business rejections at debug level; they are expected.
func logOutcome(log *logger.Logger, msg string, err error, fields ...logger.Field) {
	if err == nil {
		log.Info(msg, fields...)
		return
	}
	fields = append(fields, logger.Err(err))
	if shared.IsBusiness(err) {
		log.Debug(msg+" rejected", fields...)
		return
	}
	log.Error(msg+" failed", fields...)
}

func orNop(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.NewNop()
	}
	return log
}
