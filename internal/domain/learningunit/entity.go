// Package learningunit contains the learning unit aggregate: a course
// offering for one academic year with its lecturing and practical volumes.
// This package has no infrastructure dependencies.
package learningunit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Identity uniquely identifies a learning unit year.
type Identity struct {
	Code string
	Year shared.AcademicYear
}

var codeRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,14}$`)

// NewIdentity creates a new Identity with validation. The code is upper-cased.
func NewIdentity(code string, year int) (Identity, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !codeRegex.MatchString(c) {
		return Identity{}, shared.NewDomainError("learning_unit", "NewIdentity", shared.ErrInvalidID, "invalid learning unit code")
	}
	y, err := shared.NewAcademicYear(year)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Code: c, Year: y}, nil
}

// String returns e.g. "LDROI1001 (2020-21)".
func (i Identity) String() string {
	return fmt.Sprintf("%s (%s)", i.Code, i.Year)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type discriminates the learning unit variants.
type Type string

const (
	TypeCourse          Type = "course"
	TypeInternship      Type = "internship"
	TypeDissertation    Type = "dissertation"
	TypeOtherCollective Type = "other_collective"
	TypeOtherIndividual Type = "other_individual"
	TypeMasterThesis    Type = "master_thesis"
	TypeExternal        Type = "external"
)

// IsValid checks if the type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeCourse, TypeInternship, TypeDissertation, TypeOtherCollective,
		TypeOtherIndividual, TypeMasterThesis, TypeExternal:
		return true
	}
	return false
}

// Quadrimester is the term(s) during which a unit or a class is taught.
type Quadrimester string

const (
	Q1       Quadrimester = "Q1"
	Q2       Quadrimester = "Q2"
	Q3       Quadrimester = "Q3"
	Q1and2   Quadrimester = "Q1and2"
	Q1or2    Quadrimester = "Q1or2"
	NoQuadri Quadrimester = ""
)

// Quadrimesters lists every non-empty value.
var Quadrimesters = []Quadrimester{Q1, Q2, Q3, Q1and2, Q1or2}

// IsValid accepts every listed value and the empty value.
func (q Quadrimester) IsValid() bool {
	if q == NoQuadri {
		return true
	}
	for _, v := range Quadrimesters {
		if v == q {
			return true
		}
	}
	return false
}

// Session is the exam session(s) in which a unit or a class is evaluated.
type Session string

const (
	Session1   Session = "1"
	Session2   Session = "2"
	Session3   Session = "3"
	Session12  Session = "12"
	Session13  Session = "13"
	Session23  Session = "23"
	Session123 Session = "123"
	SessionP23 Session = "P23"
	NoSession  Session = ""
)

// Sessions lists every non-empty value.
var Sessions = []Session{Session1, Session2, Session3, Session12, Session13, Session23, Session123, SessionP23}

// IsValid accepts every listed value and the empty value.
func (s Session) IsValid() bool {
	if s == NoSession {
		return true
	}
	for _, v := range Sessions {
		if v == s {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// VOLUMES
// ══════════════════════════════════════════════════════════════════════════════

// VolumesRepartition splits the annual volume between the requirement entities.
type VolumesRepartition struct {
	RequirementEntity            decimal.NullDecimal
	AdditionalRequirementEntity1 decimal.NullDecimal
	AdditionalRequirementEntity2 decimal.NullDecimal
}

// Volumes holds the hourly volumes of one learning unit part.
// VolumeAnnual should equal the sum of both quadrimesters; validators check
// this, the struct does not.
type Volumes struct {
	VolumeFirstQuadrimester  decimal.NullDecimal
	VolumeSecondQuadrimester decimal.NullDecimal
	VolumeAnnual             decimal.NullDecimal
	PlannedClasses           int
	VolumesRepartition       VolumesRepartition
}

// Annual returns the annual volume, zero when absent.
func (v Volumes) Annual() decimal.Decimal {
	return shared.OrZero(v.VolumeAnnual)
}

// QuadrimestersTotal returns Q1 + Q2, treating absent values as zero.
func (v Volumes) QuadrimestersTotal() decimal.Decimal {
	return shared.OrZero(v.VolumeFirstQuadrimester).Add(shared.OrZero(v.VolumeSecondQuadrimester))
}

// IsAnnualConsistent reports whether the annual volume matches Q1 + Q2 when
// both quadrimesters are filled in.
func (v Volumes) IsAnnualConsistent() bool {
	if !v.VolumeFirstQuadrimester.Valid || !v.VolumeSecondQuadrimester.Valid {
		return true
	}
	return v.Annual().Equal(v.QuadrimestersTotal())
}

// HasVolume reports whether the part carries any annual volume.
func (v Volumes) HasVolume() bool {
	return v.Annual().GreaterThan(decimal.Zero)
}

// Part is the lecturing or the practical component of a learning unit.
type Part struct {
	Acronym string
	Volumes Volumes
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE ROOT
// ══════════════════════════════════════════════════════════════════════════════

// Titles holds the French and English titles.
type Titles struct {
	Fr string
	En string
}

// Partim is a subdivision of a learning unit (e.g. LDROI1001A).
type Partim struct {
	Subdivision string
	Credits     decimal.Decimal
}

// ExternalDetails is only set on external learning units.
type ExternalDetails struct {
	ExternalAcronym string
	ExternalCredits decimal.Decimal
	Mobility        bool
}

// LearningUnit is the aggregate root for a learning unit year.
type LearningUnit struct {
	Identity               Identity
	Type                   Type
	Titles                 Titles
	Credits                decimal.Decimal
	LecturingPart          Part
	PracticalPart          Part
	Partims                []Partim
	DerogationQuadrimester Quadrimester
	DerogationSession      Session
	External               *ExternalDetails
}

// Code returns the learning unit code.
func (lu *LearningUnit) Code() string {
	return lu.Identity.Code
}

// Year returns the academic year.
func (lu *LearningUnit) Year() shared.AcademicYear {
	return lu.Identity.Year
}

// HasPartim reports whether the learning unit is split into partims.
func (lu *LearningUnit) HasPartim() bool {
	return len(lu.Partims) > 0
}

// IsExternal reports whether the learning unit is taught outside the institution.
func (lu *LearningUnit) IsExternal() bool {
	switch lu.Type {
	case TypeExternal:
		return true
	case TypeCourse, TypeInternship, TypeDissertation, TypeOtherCollective,
		TypeOtherIndividual, TypeMasterThesis:
		return false
	default:
		return false
	}
}

// IsMobility reports whether the learning unit is an external mobility unit.
func (lu *LearningUnit) IsMobility() bool {
	return lu.External != nil && lu.External.Mobility
}

// HasLecturingVolume reports whether the lecturing part has an annual volume.
func (lu *LearningUnit) HasLecturingVolume() bool {
	return lu.LecturingPart.Volumes.HasVolume()
}

// HasPracticalVolume reports whether the practical part has an annual volume.
func (lu *LearningUnit) HasPracticalVolume() bool {
	return lu.PracticalPart.Volumes.HasVolume()
}

// HasVolume reports whether either part has an annual volume.
func (lu *LearningUnit) HasVolume() bool {
	return lu.HasLecturingVolume() || lu.HasPracticalVolume()
}

// HasOnlyPracticalVolume is true when classes must be practical classes.
func (lu *LearningUnit) HasOnlyPracticalVolume() bool {
	return lu.HasPracticalVolume() && !lu.HasLecturingVolume()
}

// PartForClasses returns the part new classes are measured against:
// practical when only the practical part has volume, lecturing otherwise.
func (lu *LearningUnit) PartForClasses() Part {
	if lu.HasOnlyPracticalVolume() {
		return lu.PracticalPart
	}
	return lu.LecturingPart
}

// String returns a readable representation.
func (lu *LearningUnit) String() string {
	return fmt.Sprintf("LearningUnit{%s, type=%s}", lu.Identity, lu.Type)
}
