package attribution

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ErrTutorNotFound is returned by repositories for unknown tutors.
var ErrTutorNotFound = shared.NewDomainError("attribution", "Get", shared.ErrNotFound, "tutor not found")

// ErrAttributionNotFound is returned by translators for unknown attributions.
var ErrAttributionNotFound = shared.NewDomainError("attribution", "GetLearningUnitAttribution", shared.ErrNotFound, "attribution not found")

// ErrAssignedVolumeInvalidValue is the kind matched by InvalidVolumeError,
// for callers that only care that the volume was out of range.
var ErrAssignedVolumeInvalidValue = errors.New("assigned volume has an invalid value")

// VolumeShouldBeNumericError is raised when the volume is not a number.
type VolumeShouldBeNumericError struct {
	shared.BusinessRule
	Value any
}

func (e *VolumeShouldBeNumericError) Error() string {
	return fmt.Sprintf("volume %v should be a number", e.Value)
}

// Is matches shared.ErrBusiness and shared.ErrInvalidFormat.
func (e *VolumeShouldBeNumericError) Is(target error) bool {
	return target == shared.ErrBusiness || target == shared.ErrInvalidFormat
}

// InvalidVolumeError is raised when the distributed volume is negative or
// above the total volume of the class.
type InvalidVolumeError struct {
	Volume           decimal.Decimal
	TotalClassVolume decimal.Decimal
}

func (e *InvalidVolumeError) Error() string {
	return fmt.Sprintf("volume %s must be between 0 and the class volume %s", e.Volume, e.TotalClassVolume)
}

// Is matches shared.ErrBusiness and ErrAssignedVolumeInvalidValue.
func (e *InvalidVolumeError) Is(target error) bool {
	return target == shared.ErrBusiness || target == ErrAssignedVolumeInvalidValue
}

// AssignedVolumeTooHighError is raised when the distributed volume exceeds
// what the attribution grants on the learning unit.
type AssignedVolumeTooHighError struct {
	shared.BusinessRule
	Volume           decimal.Decimal
	AttributedVolume decimal.Decimal
}

func (e *AssignedVolumeTooHighError) Error() string {
	return fmt.Sprintf("volume %s exceeds the volume attributed to the tutor on the learning unit (%s)",
		e.Volume, e.AttributedVolume)
}

// TutorAlreadyAssignedError is raised when the (class, attribution) pair is
// already in the tutor's repartitions.
type TutorAlreadyAssignedError struct {
	shared.BusinessRule
	TutorFullName        string
	ClassCompleteAcronym string
}

func (e *TutorAlreadyAssignedError) Error() string {
	return fmt.Sprintf("tutor %s is already assigned to class %s", e.TutorFullName, e.ClassCompleteAcronym)
}

// Is matches shared.ErrBusiness and shared.ErrAlreadyExists.
func (e *TutorAlreadyAssignedError) Is(target error) bool {
	return target == shared.ErrBusiness || target == shared.ErrAlreadyExists
}

// AttributionMismatchError is raised when the attribution is not on the
// class's learning unit.
type AttributionMismatchError struct {
	shared.BusinessRule
	Attribution          AttributionIdentity
	ClassCompleteAcronym string
}

func (e *AttributionMismatchError) Error() string {
	return fmt.Sprintf("attribution %s does not cover class %s", e.Attribution, e.ClassCompleteAcronym)
}
