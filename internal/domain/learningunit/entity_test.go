package learningunit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

func TestNewIdentity(t *testing.T) {
	id, err := NewIdentity(" ldroi1001 ", 2020)
	require.NoError(t, err)
	assert.Equal(t, Identity{Code: "LDROI1001", Year: 2020}, id)
	assert.Equal(t, "LDROI1001 (2020-21)", id.String())

	_, err = NewIdentity("1DROI", 2020)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewIdentity("LDROI1001", 3000)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestVolumes(t *testing.T) {
	v := Volumes{
		VolumeFirstQuadrimester:  shared.Hours(10),
		VolumeSecondQuadrimester: shared.Hours(20),
		VolumeAnnual:             shared.Hours(30),
	}
	assert.True(t, v.IsAnnualConsistent())
	assert.True(t, v.HasVolume())
	assert.Equal(t, "30", v.QuadrimestersTotal().String())

	v.VolumeAnnual = shared.Hours(25)
	assert.False(t, v.IsAnnualConsistent())

	v.VolumeSecondQuadrimester = shared.NoHours
	assert.True(t, v.IsAnnualConsistent())

	assert.False(t, Volumes{}.HasVolume())
	assert.True(t, Volumes{}.Annual().IsZero())
}

func TestLearningUnit_PartForClasses(t *testing.T) {
	lecturing := Part{Acronym: "PM", Volumes: Volumes{VolumeAnnual: shared.Hours(30)}}
	practical := Part{Acronym: "PP", Volumes: Volumes{VolumeAnnual: shared.Hours(10)}}

	lu := &LearningUnit{LecturingPart: lecturing, PracticalPart: practical}
	assert.Equal(t, "PM", lu.PartForClasses().Acronym)
	assert.False(t, lu.HasOnlyPracticalVolume())

	lu.LecturingPart = Part{}
	assert.Equal(t, "PP", lu.PartForClasses().Acronym)
	assert.True(t, lu.HasOnlyPracticalVolume())

	lu.PracticalPart = Part{}
	assert.False(t, lu.HasVolume())
	assert.Equal(t, "", lu.PartForClasses().Acronym)
}

func TestLearningUnit_ExternalAndMobility(t *testing.T) {
	lu := &LearningUnit{Type: TypeCourse}
	assert.False(t, lu.IsExternal())
	assert.False(t, lu.IsMobility())

	lu.Type = TypeExternal
	lu.External = &ExternalDetails{ExternalAcronym: "ERASMUS-01", Mobility: true}
	assert.True(t, lu.IsExternal())
	assert.True(t, lu.IsMobility())
}

func TestEnums(t *testing.T) {
	assert.True(t, TypeMasterThesis.IsValid())
	assert.False(t, Type("seminar").IsValid())

	assert.True(t, Q1or2.IsValid())
	assert.True(t, NoQuadri.IsValid())
	assert.False(t, Quadrimester("Q4").IsValid())

	assert.True(t, SessionP23.IsValid())
	assert.True(t, NoSession.IsValid())
	assert.False(t, Session("4").IsValid())
}
