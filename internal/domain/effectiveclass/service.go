package effectiveclass

import (
	"context"
	"fmt"

	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// LearningUnitChecks carries the facts about a learning unit that need a
// repository lookup. Use cases gather them before calling the services.
type LearningUnitChecks struct {
	HasProposal    bool
	HasEnrollments bool
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATOR LISTS
// ══════════════════════════════════════════════════════════════════════════════

// CanCreateValidatorList checks that the learning unit accepts classes.
func CanCreateValidatorList(lu *learningunit.LearningUnit, checks LearningUnitChecks) shared.ValidatorList {
	return shared.ValidatorList{
		Invariants: []shared.Validator{
			ShouldLearningUnitAcceptClassesValidator{LearningUnit: lu},
			ShouldLearningUnitNotHavePartimValidator{LearningUnit: lu},
			ShouldLearningUnitNotHaveProposalValidator{LearningUnit: lu, HasProposal: checks.HasProposal},
			ShouldLearningUnitNotHaveEnrollmentsValidator{LearningUnit: lu, HasEnrollments: checks.HasEnrollments},
			ShouldLearningUnitHaveVolumeValidator{LearningUnit: lu},
		},
	}
}

// CreateValidatorList checks a new class. Every rule runs, so the caller
// receives all violations at once.
func CreateValidatorList(
	lu *learningunit.LearningUnit,
	params ClassParams,
	existing []Identity,
	checks LearningUnitChecks,
) shared.ValidatorList {
	list := UpdateValidatorList(lu, params)
	list.Invariants = append(list.Invariants,
		ShouldCodeNotExistForLearningUnitValidator{ClassCode: params.ClassCode, Unit: lu.Identity, AllClasses: existing},
	)
	list.Invariants = append(list.Invariants, CanCreateValidatorList(lu, checks).Invariants...)
	return list
}

// UpdateValidatorList checks the mutable attributes of a class.
func UpdateValidatorList(lu *learningunit.LearningUnit, params ClassParams) shared.ValidatorList {
	return shared.ValidatorList{
		Invariants: []shared.Validator{
			ShouldBeAlphanumericValidator{ClassCode: params.ClassCode},
			ShouldVolumesBeConsistentWithLearningUnitValidator{
				LearningUnit:             lu,
				VolumeFirstQuadrimester:  params.VolumeFirstQuadrimester,
				VolumeSecondQuadrimester: params.VolumeSecondQuadrimester,
			},
			TeachingPlaceRequiredValidator{TeachingPlace: params.TeachingPlace},
			DerogationQuadrimesterChoiceValidator{Value: params.DerogationQuadrimester},
			DerogationSessionChoiceValidator{Value: params.DerogationSession},
		},
	}
}

// DeleteValidatorList checks a class may be removed.
func DeleteValidatorList(class *EffectiveClass, hasEnrollments bool, tutorFullNames []string) shared.ValidatorList {
	return shared.ValidatorList{
		Invariants: []shared.Validator{
			ShouldLearningUnitOfClassNotHaveEnrollmentsValidator{Class: class, HasEnrollments: hasEnrollments},
			ShouldClassNotHaveTutorAssignedValidator{Class: class, TutorFullNames: tutorFullNames},
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN SERVICES
// ══════════════════════════════════════════════════════════════════════════════

// CanCreate returns the reasons the learning unit cannot receive classes.
func CanCreate(lu *learningunit.LearningUnit, checks LearningUnitChecks) error {
	return CanCreateValidatorList(lu, checks).Validate()
}

// Create validates params against the learning unit and builds the class.
func Create(
	lu *learningunit.LearningUnit,
	params ClassParams,
	existing []Identity,
	checks LearningUnitChecks,
) (*EffectiveClass, error) {
	if err := CreateValidatorList(lu, params, existing, checks).Validate(); err != nil {
		return nil, err
	}

	class := &EffectiveClass{
		Identity: BuildIdentityForLearningUnit(params.ClassCode, lu.Identity),
		Type:     TypeForLearningUnit(lu),
	}
	class.apply(params)
	return class, nil
}

// Update validates params and applies them to class in place. The class code
// is part of the identity and cannot change.
func Update(lu *learningunit.LearningUnit, class *EffectiveClass, params ClassParams) error {
	if class.Identity.LearningUnit != lu.Identity {
		return shared.NewDomainError("effective_class", "Update", shared.ErrInvalidInput,
			fmt.Sprintf("class %s does not belong to %s", class.Identity, lu.Identity))
	}
	params.ClassCode = class.Identity.ClassCode

	if err := UpdateValidatorList(lu, params).Validate(); err != nil {
		return err
	}
	class.apply(params)
	return nil
}

// VerifyDeletable returns the reasons the class cannot be deleted. Lookup
// failures from the services are returned as is.
func VerifyDeletable(
	ctx context.Context,
	class *EffectiveClass,
	lu *learningunit.LearningUnit,
	tutors TutorAssignedService,
	enrollments EnrollmentService,
) error {
	hasEnrollments, err := enrollments.HasEnrollments(ctx, lu)
	if err != nil {
		return fmt.Errorf("check enrollments of %s: %w", lu.Identity, err)
	}
	names, err := tutors.AssignedTutorFullNames(ctx, class.Identity)
	if err != nil {
		return fmt.Errorf("list tutors of %s: %w", class.CompleteAcronym(), err)
	}
	return DeleteValidatorList(class, hasEnrollments, names).Validate()
}
