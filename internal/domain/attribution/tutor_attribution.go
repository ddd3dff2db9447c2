package attribution

import (
	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
)

// Function is the pedagogical role an attribution grants.
type Function string

const (
	FunctionCoordinator      Function = "COORDINATOR"
	FunctionHolder           Function = "HOLDER"
	FunctionCoHolder         Function = "CO_HOLDER"
	FunctionDeputy           Function = "DEPUTY"
	FunctionDeputyAuthority  Function = "DEPUTY_AUTHORITY"
	FunctionDeputySabbatical Function = "DEPUTY_SABBATICAL"
	FunctionDeputyTemporary  Function = "DEPUTY_TEMPORARY"
	FunctionProfessor        Function = "PROFESSOR"
)

// IsValid reports whether f is a known function. Empty is allowed.
func (f Function) IsValid() bool {
	switch f {
	case "", FunctionCoordinator, FunctionHolder, FunctionCoHolder, FunctionDeputy,
		FunctionDeputyAuthority, FunctionDeputySabbatical, FunctionDeputyTemporary, FunctionProfessor:
		return true
	}
	return false
}

// TutorAttribution is a tutor's teaching-assignment contract on a learning
// unit, as resolved by a TutorAttributionTranslator.
type TutorAttribution struct {
	Attribution                    AttributionIdentity
	Tutor                          TutorIdentity
	FirstName                      string
	LastName                       string
	Function                       Function
	LearningUnit                   learningunit.Identity
	AttributedVolumeToLearningUnit decimal.Decimal
}

// FullName returns "LAST First".
func (a TutorAttribution) FullName() string {
	return fullName(a.FirstName, a.LastName)
}
