package effectiveclass

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLASS VALIDATORS
// ══════════════════════════════════════════════════════════════════════════════

var singleAlphanumeric = regexp.MustCompile(`^[A-Za-z0-9]$`)

// ShouldBeAlphanumericValidator checks the class code is one letter or digit.
type ShouldBeAlphanumericValidator struct {
	ClassCode string
}

func (v ShouldBeAlphanumericValidator) Validate() error {
	if !singleAlphanumeric.MatchString(strings.TrimSpace(v.ClassCode)) {
		return &ShouldBeAlphanumericError{Value: v.ClassCode}
	}
	return nil
}

// ShouldCodeNotExistForLearningUnitValidator checks the class code is free
// within its learning unit.
type ShouldCodeNotExistForLearningUnitValidator struct {
	ClassCode  string
	Unit       learningunit.Identity
	AllClasses []Identity
}

func (v ShouldCodeNotExistForLearningUnitValidator) Validate() error {
	wanted := BuildIdentityForLearningUnit(v.ClassCode, v.Unit)
	for _, id := range v.AllClasses {
		if id == wanted {
			return &CodeClassAlreadyExistForUeError{ClassCode: wanted.ClassCode, LearningUnitCode: v.Unit.Code}
		}
	}
	return nil
}

// ShouldVolumesBeConsistentWithLearningUnitValidator checks that Q1 + Q2 of
// the class equals the annual volume of the part classes are measured
// against. Units without any volume are reported by
// ShouldLearningUnitHaveVolumeValidator instead.
type ShouldVolumesBeConsistentWithLearningUnitValidator struct {
	LearningUnit             *learningunit.LearningUnit
	VolumeFirstQuadrimester  decimal.NullDecimal
	VolumeSecondQuadrimester decimal.NullDecimal
}

func (v ShouldVolumesBeConsistentWithLearningUnitValidator) Validate() error {
	if !v.LearningUnit.HasVolume() {
		return nil
	}
	annual := v.LearningUnit.PartForClasses().Volumes.Annual()
	sum := shared.OrZero(v.VolumeFirstQuadrimester).Add(shared.OrZero(v.VolumeSecondQuadrimester))
	if !sum.Equal(annual) {
		return &AnnualVolumeInvalidError{VolumeAnnual: annual, Sum: sum}
	}
	return nil
}

// TeachingPlaceRequiredValidator checks a campus is given.
type TeachingPlaceRequiredValidator struct {
	TeachingPlace TeachingPlace
}

func (v TeachingPlaceRequiredValidator) Validate() error {
	if v.TeachingPlace.IsEmpty() {
		return &TeachingPlaceRequiredError{}
	}
	return nil
}

// DerogationQuadrimesterChoiceValidator checks the value is a known quadrimester.
type DerogationQuadrimesterChoiceValidator struct {
	Value learningunit.Quadrimester
}

func (v DerogationQuadrimesterChoiceValidator) Validate() error {
	if !v.Value.IsValid() {
		return &DerogationQuadrimesterInvalidChoiceError{Value: string(v.Value)}
	}
	return nil
}

// DerogationSessionChoiceValidator checks the value is a known session.
type DerogationSessionChoiceValidator struct {
	Value learningunit.Session
}

func (v DerogationSessionChoiceValidator) Validate() error {
	if !v.Value.IsValid() {
		return &DerogationSessionInvalidChoiceError{Value: string(v.Value)}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING UNIT ELIGIBILITY VALIDATORS
// ══════════════════════════════════════════════════════════════════════════════

// ShouldLearningUnitAcceptClassesValidator rejects external and mobility units.
type ShouldLearningUnitAcceptClassesValidator struct {
	LearningUnit *learningunit.LearningUnit
}

func (v ShouldLearningUnitAcceptClassesValidator) Validate() error {
	if v.LearningUnit.IsExternal() || v.LearningUnit.IsMobility() {
		return &ClassTypeInvalidError{LearningUnitCode: v.LearningUnit.Code()}
	}
	return nil
}

// ShouldLearningUnitNotHavePartimValidator rejects units split into partims.
type ShouldLearningUnitNotHavePartimValidator struct {
	LearningUnit *learningunit.LearningUnit
}

func (v ShouldLearningUnitNotHavePartimValidator) Validate() error {
	if v.LearningUnit.HasPartim() {
		return &LearningUnitHasPartimError{LearningUnitCode: v.LearningUnit.Code()}
	}
	return nil
}

// ShouldLearningUnitNotHaveProposalValidator rejects units with a proposal.
type ShouldLearningUnitNotHaveProposalValidator struct {
	LearningUnit *learningunit.LearningUnit
	HasProposal  bool
}

func (v ShouldLearningUnitNotHaveProposalValidator) Validate() error {
	if v.HasProposal {
		return &LearningUnitHasProposalError{LearningUnitCode: v.LearningUnit.Code()}
	}
	return nil
}

// ShouldLearningUnitNotHaveEnrollmentsValidator rejects units with enrollments.
type ShouldLearningUnitNotHaveEnrollmentsValidator struct {
	LearningUnit   *learningunit.LearningUnit
	HasEnrollments bool
}

func (v ShouldLearningUnitNotHaveEnrollmentsValidator) Validate() error {
	if v.HasEnrollments {
		return &LearningUnitHasEnrollmentError{LearningUnitCode: v.LearningUnit.Code()}
	}
	return nil
}

// ShouldLearningUnitHaveVolumeValidator rejects units without any annual volume.
type ShouldLearningUnitHaveVolumeValidator struct {
	LearningUnit *learningunit.LearningUnit
}

func (v ShouldLearningUnitHaveVolumeValidator) Validate() error {
	if !v.LearningUnit.HasVolume() {
		return &LearningUnitHasNoVolumeError{LearningUnitCode: v.LearningUnit.Code()}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETION VALIDATORS
// ══════════════════════════════════════════════════════════════════════════════

// ShouldLearningUnitOfClassNotHaveEnrollmentsValidator blocks deleting a
// class of a unit with enrolled students.
type ShouldLearningUnitOfClassNotHaveEnrollmentsValidator struct {
	Class          *EffectiveClass
	HasEnrollments bool
}

func (v ShouldLearningUnitOfClassNotHaveEnrollmentsValidator) Validate() error {
	if v.HasEnrollments {
		return &LearningUnitOfEffectiveClassHasEnrollmentError{ClassCompleteAcronym: v.Class.CompleteAcronym()}
	}
	return nil
}

// ShouldClassNotHaveTutorAssignedValidator blocks deleting a class while a
// tutor holds volume on it. One error is reported per assigned tutor.
type ShouldClassNotHaveTutorAssignedValidator struct {
	Class          *EffectiveClass
	TutorFullNames []string
}

func (v ShouldClassNotHaveTutorAssignedValidator) Validate() error {
	errs := make([]error, 0, len(v.TutorFullNames))
	for _, name := range v.TutorFullNames {
		errs = append(errs, &EffectiveClassHasTutorAssignedError{
			ClassCompleteAcronym: v.Class.CompleteAcronym(),
			TutorFullName:        name,
			Year:                 v.Class.Identity.LearningUnit.Year,
		})
	}
	return shared.JoinBusinessErrors(errs...)
}
