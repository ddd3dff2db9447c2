package effectiveclass

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ErrEffectiveClassNotFound is returned by repositories for unknown identities.
var ErrEffectiveClassNotFound = shared.NewDomainError("effective_class", "Get", shared.ErrNotFound, "effective class not found")

// AnnualVolumeInvalidError is raised when Q1 + Q2 of a class does not match
// the annual volume of the learning unit part.
type AnnualVolumeInvalidError struct {
	shared.BusinessRule
	VolumeAnnual decimal.Decimal
	Sum          decimal.Decimal
}

func (e *AnnualVolumeInvalidError) Error() string {
	return fmt.Sprintf("the sum of the quadrimester volumes (%s) must equal the annual volume of the learning unit (%s)",
		e.Sum, e.VolumeAnnual)
}

// CodeClassAlreadyExistForUeError is raised when the class code is taken.
type CodeClassAlreadyExistForUeError struct {
	shared.BusinessRule
	ClassCode        string
	LearningUnitCode string
}

func (e *CodeClassAlreadyExistForUeError) Error() string {
	return fmt.Sprintf("class code %s already exists for %s", e.ClassCode, e.LearningUnitCode)
}

// Is matches shared.ErrBusiness and shared.ErrAlreadyExists.
func (e *CodeClassAlreadyExistForUeError) Is(target error) bool {
	return target == shared.ErrBusiness || target == shared.ErrAlreadyExists
}

// ClassTypeInvalidError is raised for external or mobility learning units.
type ClassTypeInvalidError struct {
	shared.BusinessRule
	LearningUnitCode string
}

func (e *ClassTypeInvalidError) Error() string {
	return fmt.Sprintf("classes cannot be created on external or mobility learning unit %s", e.LearningUnitCode)
}

// ShouldBeAlphanumericError is raised when the class code is not one letter or digit.
type ShouldBeAlphanumericError struct {
	shared.BusinessRule
	Value string
}

func (e *ShouldBeAlphanumericError) Error() string {
	return fmt.Sprintf("class code %q must be a single alphanumeric character", e.Value)
}

// Is matches shared.ErrBusiness and shared.ErrInvalidFormat.
func (e *ShouldBeAlphanumericError) Is(target error) bool {
	return target == shared.ErrBusiness || target == shared.ErrInvalidFormat
}

// LearningUnitHasPartimError is raised when the learning unit has partims.
type LearningUnitHasPartimError struct {
	shared.BusinessRule
	LearningUnitCode string
}

func (e *LearningUnitHasPartimError) Error() string {
	return fmt.Sprintf("learning unit %s has partims and cannot have classes", e.LearningUnitCode)
}

// LearningUnitHasProposalError is raised when a proposal exists.
type LearningUnitHasProposalError struct {
	shared.BusinessRule
	LearningUnitCode string
}

func (e *LearningUnitHasProposalError) Error() string {
	return fmt.Sprintf("learning unit %s has a proposal this year or in the past", e.LearningUnitCode)
}

// LearningUnitHasEnrollmentError is raised when students are enrolled.
type LearningUnitHasEnrollmentError struct {
	shared.BusinessRule
	LearningUnitCode string
}

func (e *LearningUnitHasEnrollmentError) Error() string {
	return fmt.Sprintf("learning unit %s already has enrollments", e.LearningUnitCode)
}

// LearningUnitHasNoVolumeError is raised when neither part has an annual volume.
type LearningUnitHasNoVolumeError struct {
	shared.BusinessRule
	LearningUnitCode string
}

func (e *LearningUnitHasNoVolumeError) Error() string {
	return fmt.Sprintf("learning unit %s has no lecturing nor practical volume", e.LearningUnitCode)
}

// TeachingPlaceRequiredError is raised when no campus is given.
type TeachingPlaceRequiredError struct {
	shared.BusinessRule
}

func (e *TeachingPlaceRequiredError) Error() string {
	return "the teaching place is required"
}

// DerogationQuadrimesterInvalidChoiceError is raised for an unknown quadrimester.
type DerogationQuadrimesterInvalidChoiceError struct {
	shared.BusinessRule
	Value string
}

func (e *DerogationQuadrimesterInvalidChoiceError) Error() string {
	return fmt.Sprintf("%q is not a valid derogation quadrimester", e.Value)
}

// DerogationSessionInvalidChoiceError is raised for an unknown session.
type DerogationSessionInvalidChoiceError struct {
	shared.BusinessRule
	Value string
}

func (e *DerogationSessionInvalidChoiceError) Error() string {
	return fmt.Sprintf("%q is not a valid derogation session", e.Value)
}

// LearningUnitOfEffectiveClassHasEnrollmentError blocks deleting a class
// whose learning unit has enrolled students.
type LearningUnitOfEffectiveClassHasEnrollmentError struct {
	shared.BusinessRule
	ClassCompleteAcronym string
}

func (e *LearningUnitOfEffectiveClassHasEnrollmentError) Error() string {
	return fmt.Sprintf("class %s cannot be deleted: its learning unit has enrollments", e.ClassCompleteAcronym)
}

// EffectiveClassHasTutorAssignedError blocks deleting a class a tutor still
// holds volume on.
type EffectiveClassHasTutorAssignedError struct {
	shared.BusinessRule
	ClassCompleteAcronym string
	TutorFullName        string
	Year                 shared.AcademicYear
}

func (e *EffectiveClassHasTutorAssignedError) Error() string {
	return fmt.Sprintf("class %s cannot be deleted: tutor %s is assigned to it in %d",
		e.ClassCompleteAcronym, e.TutorFullName, e.Year.Int())
}
