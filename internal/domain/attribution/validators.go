package attribution

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ParseVolume converts user input into a volume. Booleans, non-numeric
// strings and non-finite floats are rejected.
func ParseVolume(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case decimal.NullDecimal:
		return v.Decimal, v.Valid
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		if isNotFinite(float64(v)) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	case float64:
		if isNotFinite(v) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	default:
		return decimal.Zero, false
	}
}

func isNotFinite(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// DistributionTarget is what a volume is being distributed on: the class,
// its learning unit and the tutor's attribution on that unit.
type DistributionTarget struct {
	Class        *effectiveclass.EffectiveClass
	LearningUnit *learningunit.LearningUnit
	Attribution  TutorAttribution
}

// TotalClassVolume returns the volume a tutor may take on the class: the
// class total, or the annual volume of the matching learning unit part
// when the class has none.
func (t DistributionTarget) TotalClassVolume() decimal.Decimal {
	if t.Class.Volumes.HasVolume() || t.LearningUnit == nil {
		return t.Class.Volumes.TotalVolume()
	}
	return t.Class.Type.Part(t.LearningUnit).Volumes.Annual()
}

// ══════════════════════════════════════════════════════════════════════════════
// DATA CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// ShouldBeNumericValidator checks the raw volume is a number.
type ShouldBeNumericValidator struct {
	Value any
}

func (v ShouldBeNumericValidator) Validate() error {
	if _, ok := ParseVolume(v.Value); !ok {
		return &VolumeShouldBeNumericError{Value: v.Value}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INVARIANTS
// Invariant validators run only once ShouldBeNumericValidator passed, so an
// unparsable volume is skipped rather than reported twice.
// ══════════════════════════════════════════════════════════════════════════════

// ShouldBeAnAvailableVolumeValidator checks 0 <= volume <= class volume.
type ShouldBeAnAvailableVolumeValidator struct {
	Volume any
	Target DistributionTarget
}

func (v ShouldBeAnAvailableVolumeValidator) Validate() error {
	volume, ok := ParseVolume(v.Volume)
	if !ok {
		return nil
	}
	total := v.Target.TotalClassVolume()
	if volume.IsNegative() || volume.GreaterThan(total) {
		return &InvalidVolumeError{Volume: volume, TotalClassVolume: total}
	}
	return nil
}

// ShouldNotExceedAttributedVolumeValidator checks the volume fits in what
// the attribution grants on the learning unit.
type ShouldNotExceedAttributedVolumeValidator struct {
	Volume      any
	Attribution TutorAttribution
}

func (v ShouldNotExceedAttributedVolumeValidator) Validate() error {
	volume, ok := ParseVolume(v.Volume)
	if !ok {
		return nil
	}
	if volume.GreaterThan(v.Attribution.AttributedVolumeToLearningUnit) {
		return &AssignedVolumeTooHighError{Volume: volume, AttributedVolume: v.Attribution.AttributedVolumeToLearningUnit}
	}
	return nil
}

// ShouldAttributionCoverClassValidator checks the attribution is on the
// class's learning unit.
type ShouldAttributionCoverClassValidator struct {
	Target DistributionTarget
}

func (v ShouldAttributionCoverClassValidator) Validate() error {
	if v.Target.Attribution.LearningUnit != v.Target.Class.LearningUnitIdentity() {
		return &AttributionMismatchError{
			Attribution:          v.Target.Attribution.Attribution,
			ClassCompleteAcronym: v.Target.Class.CompleteAcronym(),
		}
	}
	return nil
}

// ShouldTutorNotBeAlreadyAssignedToClassValidator checks the (class,
// attribution) pair is new for the tutor.
type ShouldTutorNotBeAlreadyAssignedToClassValidator struct {
	Tutor  *Tutor
	Target DistributionTarget
}

func (v ShouldTutorNotBeAlreadyAssignedToClassValidator) Validate() error {
	candidate := ClassVolumeRepartition{
		EffectiveClass: v.Target.Class.Identity,
		Attribution:    v.Target.Attribution.Attribution,
	}
	if _, found := v.Tutor.find(candidate); found {
		return &TutorAlreadyAssignedError{
			TutorFullName:        v.Tutor.FullName(),
			ClassCompleteAcronym: v.Target.Class.CompleteAcronym(),
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATOR LISTS
// ══════════════════════════════════════════════════════════════════════════════

// DistributeValidatorList guards Tutor.AssignClass.
func DistributeValidatorList(tutor *Tutor, target DistributionTarget, rawVolume any) shared.ValidatorList {
	return shared.ValidatorList{
		DataContract: []shared.Validator{
			ShouldBeNumericValidator{Value: rawVolume},
		},
		Invariants: []shared.Validator{
			ShouldAttributionCoverClassValidator{Target: target},
			ShouldBeAnAvailableVolumeValidator{Volume: rawVolume, Target: target},
			ShouldNotExceedAttributedVolumeValidator{Volume: rawVolume, Attribution: target.Attribution},
			ShouldTutorNotBeAlreadyAssignedToClassValidator{Tutor: tutor, Target: target},
		},
	}
}

// EditValidatorList guards Tutor.EditClassVolume. The pair is expected to
// exist already, so the duplicate check is left out.
func EditValidatorList(target DistributionTarget, rawVolume any) shared.ValidatorList {
	return shared.ValidatorList{
		DataContract: []shared.Validator{
			ShouldBeNumericValidator{Value: rawVolume},
		},
		Invariants: []shared.Validator{
			ShouldAttributionCoverClassValidator{Target: target},
			ShouldBeAnAvailableVolumeValidator{Volume: rawVolume, Target: target},
			ShouldNotExceedAttributedVolumeValidator{Volume: rawVolume, Attribution: target.Attribution},
		},
	}
}
