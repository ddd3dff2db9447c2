package attribution

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
)

// ClassVolumeRepartition is the slice of a class volume a tutor teaches
// under one attribution.
//
// Two repartitions with the same class and attribution are the same
// repartition whatever their volume: use MatchesKey, not ==, to compare
// them. Equal compares every field.
type ClassVolumeRepartition struct {
	EffectiveClass    effectiveclass.Identity
	Attribution       AttributionIdentity
	DistributedVolume decimal.Decimal
}

// MatchesKey reports whether both repartitions target the same
// (class, attribution) pair.
func (r ClassVolumeRepartition) MatchesKey(other ClassVolumeRepartition) bool {
	return r.EffectiveClass == other.EffectiveClass && r.Attribution == other.Attribution
}

// Equal reports full equality, volume included.
func (r ClassVolumeRepartition) Equal(other ClassVolumeRepartition) bool {
	return r.MatchesKey(other) && r.DistributedVolume.Equal(other.DistributedVolume)
}

// matches is the lookup used by edit and unassign, which only know the
// class code and the attribution UUID.
func (r ClassVolumeRepartition) matches(classCode, attributionUUID string) bool {
	return strings.EqualFold(r.EffectiveClass.ClassCode, strings.TrimSpace(classCode)) &&
		strings.EqualFold(r.Attribution.UUID, strings.TrimSpace(attributionUUID))
}

func (r ClassVolumeRepartition) String() string {
	return fmt.Sprintf("%s/%s: %s", r.EffectiveClass, r.Attribution, r.DistributedVolume)
}
