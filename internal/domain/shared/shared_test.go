package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ruleError struct {
	BusinessRule
	name string
}

func (e *ruleError) Error() string { return e.name }

func failing(name string) Validator {
	return ValidatorFunc(func() error { return &ruleError{name: name} })
}

func passing() Validator {
	return ValidatorFunc(func() error { return nil })
}

func TestValidatorList_DataContractStopsInvariants(t *testing.T) {
	invariantRan := false
	list := ValidatorList{
		DataContract: []Validator{failing("not a number"), passing()},
		Invariants: []Validator{ValidatorFunc(func() error {
			invariantRan = true
			return nil
		})},
	}

	err := list.Validate()
	require.Error(t, err)
	assert.False(t, invariantRan)
	assert.Equal(t, "not a number", err.Error())
}

func TestValidatorList_CollectsAllInvariants(t *testing.T) {
	list := ValidatorList{
		DataContract: []Validator{passing()},
		Invariants:   []Validator{failing("first"), passing(), nil, failing("second")},
	}

	err := list.Validate()
	require.Error(t, err)

	var multi *MultipleBusinessErrors
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
	assert.Equal(t, "first; second", err.Error())
	assert.True(t, IsBusiness(err))
}

func TestValidatorList_Clean(t *testing.T) {
	assert.NoError(t, ValidatorList{}.Validate())
	assert.NoError(t, ValidatorList{Invariants: []Validator{passing()}}.Validate())
}

func TestJoinBusinessErrors_Flattens(t *testing.T) {
	inner := JoinBusinessErrors(&ruleError{name: "a"}, &ruleError{name: "b"})
	outer := JoinBusinessErrors(nil, inner, &ruleError{name: "c"})

	assert.Len(t, BusinessErrors(outer), 3)
	assert.Nil(t, JoinBusinessErrors())
	assert.Nil(t, JoinBusinessErrors(nil, nil))
}

func TestBusinessErrors_Single(t *testing.T) {
	err := &ruleError{name: "alone"}

	assert.Equal(t, []error{err}, BusinessErrors(err))
	assert.Nil(t, BusinessErrors(nil))
}

func TestIsBusiness(t *testing.T) {
	assert.True(t, IsBusiness(&ruleError{name: "x"}))
	assert.True(t, IsBusiness(fmt.Errorf("wrapped: %w", &ruleError{name: "x"})))
	assert.False(t, IsBusiness(errors.New("io")))
}

func TestDomainError(t *testing.T) {
	cause := errors.New("parse failure")
	err := WrapError("attribution", "Parse", ErrInvalidID, "bad uuid", cause)

	assert.Equal(t, "attribution.Parse: bad uuid: parse failure", err.Error())
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))

	notFound := NewDomainError("learning_unit", "Get", ErrNotFound, "learning unit not found")
	assert.Equal(t, "learning_unit.Get: learning unit not found", notFound.Error())
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsAlreadyExists(notFound))
}

func TestAcademicYear(t *testing.T) {
	y, err := NewAcademicYear(2020)
	require.NoError(t, err)
	assert.Equal(t, "2020-21", y.String())
	assert.Equal(t, "2099-00", AcademicYear(2099).String())
	assert.Equal(t, 2020, y.Int())

	_, err = NewAcademicYear(0)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestVolumeHelpers(t *testing.T) {
	assert.True(t, OrZero(NoHours).IsZero())
	assert.True(t, OrZero(Hours(2.5)).Equal(decimal.RequireFromString("2.5")))

	assert.False(t, IsFilled(NoHours))
	assert.False(t, IsFilled(Hours(0)))
	assert.True(t, IsFilled(Hours(1)))
}
