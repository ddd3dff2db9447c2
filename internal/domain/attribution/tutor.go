package attribution

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE ROOT
// ══════════════════════════════════════════════════════════════════════════════

// Tutor is a teaching staff member and the class volumes they teach.
//
// Repartitions can only be changed through AssignClass, EditDistributedVolume
// (or EditClassVolume) and UnassignClass. Changes stay in memory until the
// tutor is saved through a TutorRepository.
type Tutor struct {
	Identity  TutorIdentity
	FirstName string
	LastName  string

	repartitions []ClassVolumeRepartition
}

// NewTutor builds a tutor with an initial set of repartitions, as loaded
// from storage.
func NewTutor(id TutorIdentity, firstName, lastName string, repartitions ...ClassVolumeRepartition) *Tutor {
	t := &Tutor{
		Identity:     id,
		FirstName:    firstName,
		LastName:     lastName,
		repartitions: make([]ClassVolumeRepartition, 0, len(repartitions)),
	}
	t.repartitions = append(t.repartitions, repartitions...)
	return t
}

// FullName returns "LAST First".
func (t *Tutor) FullName() string {
	return fullName(t.FirstName, t.LastName)
}

// Repartitions returns a copy of the tutor's repartitions, in assignment order.
func (t *Tutor) Repartitions() []ClassVolumeRepartition {
	out := make([]ClassVolumeRepartition, len(t.repartitions))
	copy(out, t.repartitions)
	return out
}

// RepartitionFor returns the repartition for the class code and attribution.
func (t *Tutor) RepartitionFor(classCode, attributionUUID string) (ClassVolumeRepartition, bool) {
	for _, r := range t.repartitions {
		if r.matches(classCode, attributionUUID) {
			return r, true
		}
	}
	return ClassVolumeRepartition{}, false
}

// IsAssignedTo reports whether the tutor teaches on the class under any attribution.
func (t *Tutor) IsAssignedTo(class effectiveclass.Identity) bool {
	for _, r := range t.repartitions {
		if r.EffectiveClass == class {
			return true
		}
	}
	return false
}

// DistributedVolumeOn returns the sum of the volumes distributed under the attribution.
func (t *Tutor) DistributedVolumeOn(attribution AttributionIdentity) decimal.Decimal {
	total := decimal.Zero
	for _, r := range t.repartitions {
		if r.Attribution == attribution {
			total = total.Add(r.DistributedVolume)
		}
	}
	return total
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// AssignClass distributes rawVolume of the target class to the tutor. The
// repartitions are left untouched when validation fails.
func (t *Tutor) AssignClass(target DistributionTarget, rawVolume any) error {
	if err := DistributeValidatorList(t, target, rawVolume).Validate(); err != nil {
		return err
	}
	volume, _ := ParseVolume(rawVolume)
	t.repartitions = append(t.repartitions, ClassVolumeRepartition{
		EffectiveClass:    target.Class.Identity,
		Attribution:       target.Attribution.Attribution,
		DistributedVolume: volume,
	})
	return nil
}

// EditClassVolume validates rawVolume against the target and overwrites
// the volume of the matching repartition.
func (t *Tutor) EditClassVolume(target DistributionTarget, rawVolume any) error {
	if err := EditValidatorList(target, rawVolume).Validate(); err != nil {
		return err
	}
	volume, _ := ParseVolume(rawVolume)
	t.EditDistributedVolume(target.Class.ClassCode(), target.Attribution.Attribution.UUID, volume)
	return nil
}

// EditDistributedVolume overwrites the volume of the repartition matching
// the class code and attribution. It does nothing when there is no match.
func (t *Tutor) EditDistributedVolume(classCode, attributionUUID string, volume decimal.Decimal) {
	for i := range t.repartitions {
		if t.repartitions[i].matches(classCode, attributionUUID) {
			t.repartitions[i].DistributedVolume = volume
			return
		}
	}
}

// UnassignClass removes the first repartition matching the class code and
// attribution. It does nothing when there is no match.
func (t *Tutor) UnassignClass(classCode, attributionUUID string) {
	for i, r := range t.repartitions {
		if r.matches(classCode, attributionUUID) {
			t.repartitions = append(t.repartitions[:i:i], t.repartitions[i+1:]...)
			return
		}
	}
}

func (t *Tutor) find(candidate ClassVolumeRepartition) (int, bool) {
	for i, r := range t.repartitions {
		if r.MatchesKey(candidate) {
			return i, true
		}
	}
	return -1, false
}

func (t *Tutor) String() string {
	return fmt.Sprintf("Tutor{%s, %s, %d repartitions}", t.Identity, t.FullName(), len(t.repartitions))
}

func fullName(firstName, lastName string) string {
	return strings.TrimSpace(strings.ToUpper(strings.TrimSpace(lastName)) + " " + strings.TrimSpace(firstName))
}
