// Package attribution holds the Tutor aggregate: the volume each teaching
// staff member teaches on effective classes, under which attribution
// contract, and the rules guarding how that volume is distributed.
package attribution

import (
	"strings"

	"github.com/google/uuid"

	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// TutorIdentity identifies a tutor by personal ID number.
type TutorIdentity struct {
	PersonalIDNumber string
}

// NewTutorIdentity validates and builds a tutor identity.
func NewTutorIdentity(personalIDNumber string) (TutorIdentity, error) {
	personalIDNumber = strings.TrimSpace(personalIDNumber)
	if personalIDNumber == "" {
		return TutorIdentity{}, shared.NewDomainError("attribution", "NewTutorIdentity", shared.ErrEmptyValue, "personal ID number is required")
	}
	return TutorIdentity{PersonalIDNumber: personalIDNumber}, nil
}

func (i TutorIdentity) String() string {
	return i.PersonalIDNumber
}

// AttributionIdentity identifies one teaching-assignment contract.
type AttributionIdentity struct {
	UUID string
}

// NewAttributionIdentity validates and builds an attribution identity.
// The UUID is stored in its canonical lower-case form.
func NewAttributionIdentity(raw string) (AttributionIdentity, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return AttributionIdentity{}, shared.WrapError("attribution", "NewAttributionIdentity", shared.ErrInvalidID, "invalid attribution uuid", err)
	}
	return AttributionIdentity{UUID: id.String()}, nil
}

// GenerateAttributionIdentity returns a fresh random identity.
func GenerateAttributionIdentity() AttributionIdentity {
	return AttributionIdentity{UUID: uuid.NewString()}
}

func (i AttributionIdentity) String() string {
	return i.UUID
}
