// Package effectiveclass models the teaching classes a learning unit's
// lecturing or practical part is divided into, together with the rules for
// creating, updating and deleting them.
package effectiveclass

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Identity identifies a class within its learning unit.
type Identity struct {
	ClassCode    string
	LearningUnit learningunit.Identity
}

// String returns e.g. "LDROI1001 (2020-21) class A".
func (i Identity) String() string {
	return fmt.Sprintf("%s class %s", i.LearningUnit, i.ClassCode)
}

// BuildIdentity builds an identity from raw command data.
func BuildIdentity(classCode, learningUnitCode string, year int) (Identity, error) {
	luID, err := learningunit.NewIdentity(learningUnitCode, year)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ClassCode: normalizeCode(classCode), LearningUnit: luID}, nil
}

// BuildIdentityForLearningUnit builds an identity for a known learning unit.
func BuildIdentityForLearningUnit(classCode string, lu learningunit.Identity) Identity {
	return Identity{ClassCode: normalizeCode(classCode), LearningUnit: lu}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ClassType tells which learning unit part the class subdivides.
type ClassType string

const (
	TypeLecturing ClassType = "lecturing"
	TypePractical ClassType = "practical"
)

// Separator returns the character placed between the learning unit code and
// the class code in the complete acronym.
func (t ClassType) Separator() string {
	switch t {
	case TypeLecturing:
		return "-"
	case TypePractical:
		return "_"
	default:
		return "-"
	}
}

// Part returns the learning unit part matching the class type.
func (t ClassType) Part(lu *learningunit.LearningUnit) learningunit.Part {
	switch t {
	case TypePractical:
		return lu.PracticalPart
	case TypeLecturing:
		return lu.LecturingPart
	default:
		return lu.LecturingPart
	}
}

// TypeForLearningUnit picks the class type for a new class: practical when
// only the practical part has volume, lecturing otherwise.
func TypeForLearningUnit(lu *learningunit.LearningUnit) ClassType {
	if lu.HasOnlyPracticalVolume() {
		return TypePractical
	}
	return TypeLecturing
}

// ClassVolumes holds the hours of a class per quadrimester.
type ClassVolumes struct {
	VolumeFirstQuadrimester  decimal.NullDecimal
	VolumeSecondQuadrimester decimal.NullDecimal
}

// TotalVolume returns Q1 + Q2, absent values counting as zero.
func (v ClassVolumes) TotalVolume() decimal.Decimal {
	return shared.OrZero(v.VolumeFirstQuadrimester).Add(shared.OrZero(v.VolumeSecondQuadrimester))
}

// HasVolume reports whether any hour is set.
func (v ClassVolumes) HasVolume() bool {
	return v.TotalVolume().GreaterThan(decimal.Zero)
}

// Titles holds the French and English class titles.
type Titles struct {
	Fr string
	En string
}

// TeachingPlace is the campus where the class is taught.
type TeachingPlace struct {
	UUID string
	Name string
}

// IsEmpty reports whether no campus is set.
func (p TeachingPlace) IsEmpty() bool {
	return strings.TrimSpace(p.UUID) == ""
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// EffectiveClass is a gradeable teaching sub-unit of a learning unit.
type EffectiveClass struct {
	Identity               Identity
	Type                   ClassType
	Titles                 Titles
	TeachingPlace          TeachingPlace
	DerogationQuadrimester learningunit.Quadrimester
	DerogationSession      learningunit.Session
	Volumes                ClassVolumes
}

// ClassCode returns the single-character class code.
func (c *EffectiveClass) ClassCode() string {
	return c.Identity.ClassCode
}

// LearningUnitIdentity returns the parent learning unit identity.
func (c *EffectiveClass) LearningUnitIdentity() learningunit.Identity {
	return c.Identity.LearningUnit
}

// CompleteAcronym returns e.g. "LDROI1001-A" for a lecturing class and
// "LDROI1001_A" for a practical one.
func (c *EffectiveClass) CompleteAcronym() string {
	return c.Identity.LearningUnit.Code + c.Type.Separator() + c.Identity.ClassCode
}

// IsVolumeFirstQuadrimesterGreaterThan compares the Q1 volume with v.
func (c *EffectiveClass) IsVolumeFirstQuadrimesterGreaterThan(v decimal.Decimal) bool {
	return shared.OrZero(c.Volumes.VolumeFirstQuadrimester).GreaterThan(v)
}

// IsVolumeSecondQuadrimesterGreaterThan compares the Q2 volume with v.
func (c *EffectiveClass) IsVolumeSecondQuadrimesterGreaterThan(v decimal.Decimal) bool {
	return shared.OrZero(c.Volumes.VolumeSecondQuadrimester).GreaterThan(v)
}

// IsVolumeTotalGreaterThan compares the total volume with v.
func (c *EffectiveClass) IsVolumeTotalGreaterThan(v decimal.Decimal) bool {
	return c.Volumes.TotalVolume().GreaterThan(v)
}

// apply overwrites the mutable attributes from params.
func (c *EffectiveClass) apply(p ClassParams) {
	c.Titles = Titles{Fr: strings.TrimSpace(p.TitleFr), En: strings.TrimSpace(p.TitleEn)}
	c.TeachingPlace = p.TeachingPlace
	c.DerogationQuadrimester = p.DerogationQuadrimester
	c.DerogationSession = p.DerogationSession
	c.Volumes = ClassVolumes{
		VolumeFirstQuadrimester:  p.VolumeFirstQuadrimester,
		VolumeSecondQuadrimester: p.VolumeSecondQuadrimester,
	}
}

// String returns a readable representation.
func (c *EffectiveClass) String() string {
	return fmt.Sprintf("EffectiveClass{%s, %s}", c.CompleteAcronym(), c.Identity.LearningUnit.Year)
}

// ClassParams carries the user-supplied attributes of a class.
type ClassParams struct {
	ClassCode                string
	TitleFr                  string
	TitleEn                  string
	TeachingPlace            TeachingPlace
	DerogationQuadrimester   learningunit.Quadrimester
	DerogationSession        learningunit.Session
	VolumeFirstQuadrimester  decimal.NullDecimal
	VolumeSecondQuadrimester decimal.NullDecimal
}
