package attribution_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
	"github.com/osis-hub/osis-attribution/internal/infrastructure/persistence/inmemory"
)

const (
	uuidU1 = "2f1c9a5e-3b1d-4b55-8a38-6f3c5d1f0a01"
	uuidU2 = "7a9d2c41-8e6b-4f0a-b3c5-1d2e3f405162"
)

var law2020 = learningunit.Identity{Code: "LDROI1001", Year: 2020}

func lawUnit() *learningunit.LearningUnit {
	return &learningunit.LearningUnit{
		Identity: law2020,
		Type:     learningunit.TypeCourse,
		LecturingPart: learningunit.Part{Volumes: learningunit.Volumes{
			VolumeFirstQuadrimester:  shared.Hours(15),
			VolumeSecondQuadrimester: shared.Hours(15),
			VolumeAnnual:             shared.Hours(30),
		}},
	}
}

// classX is the lecturing class X of LDROI1001 with a total volume of 20.
func classX() *effectiveclass.EffectiveClass {
	return &effectiveclass.EffectiveClass{
		Identity: effectiveclass.Identity{ClassCode: "X", LearningUnit: law2020},
		Type:     effectiveclass.TypeLecturing,
		Volumes: effectiveclass.ClassVolumes{
			VolumeFirstQuadrimester:  shared.Hours(10),
			VolumeSecondQuadrimester: shared.Hours(10),
		},
	}
}

func attributionOn(uuid string, lu learningunit.Identity, volume int64) attribution.TutorAttribution {
	return attribution.TutorAttribution{
		Attribution:                    attribution.AttributionIdentity{UUID: uuid},
		Tutor:                          attribution.TutorIdentity{PersonalIDNumber: "00321234"},
		FirstName:                      "Marie",
		LastName:                       "Curie",
		Function:                       attribution.FunctionHolder,
		LearningUnit:                   lu,
		AttributedVolumeToLearningUnit: decimal.NewFromInt(volume),
	}
}

func targetX(uuid string) attribution.DistributionTarget {
	return attribution.DistributionTarget{
		Class:        classX(),
		LearningUnit: lawUnit(),
		Attribution:  attributionOn(uuid, law2020, 20),
	}
}

func newT1() *attribution.Tutor {
	return attribution.NewTutor(attribution.TutorIdentity{PersonalIDNumber: "00321234"}, "Marie", "Curie")
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGN
// ══════════════════════════════════════════════════════════════════════════════

func TestAssignClass_AssignsThenRejectsSamePair(t *testing.T) {
	tutor := newT1()

	require.NoError(t, tutor.AssignClass(targetX(uuidU1), 15))
	require.Len(t, tutor.Repartitions(), 1)
	assert.True(t, tutor.Repartitions()[0].DistributedVolume.Equal(decimal.NewFromInt(15)))

	err := tutor.AssignClass(targetX(uuidU1), 5)
	require.Error(t, err)
	assert.True(t, shared.IsBusiness(err))

	var already *attribution.TutorAlreadyAssignedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "CURIE Marie", already.TutorFullName)
	assert.Equal(t, "LDROI1001-X", already.ClassCompleteAcronym)
	assert.Len(t, tutor.Repartitions(), 1)
}

func TestAssignClass_VolumeAboveClassTotal(t *testing.T) {
	tutor := newT1()

	err := tutor.AssignClass(targetX(uuidU1), 25)
	require.Error(t, err)
	assert.ErrorIs(t, err, attribution.ErrAssignedVolumeInvalidValue)

	var invalid *attribution.InvalidVolumeError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, invalid.Volume.Equal(decimal.NewFromInt(25)))
	assert.True(t, invalid.TotalClassVolume.Equal(decimal.NewFromInt(20)))

	// 25 is also above the 20 hours attributed on the unit.
	var tooHigh *attribution.AssignedVolumeTooHighError
	assert.ErrorAs(t, err, &tooHigh)
	assert.Empty(t, tutor.Repartitions())
}

func TestAssignClass_VolumeAboveAttributedVolume(t *testing.T) {
	tutor := newT1()
	target := targetX(uuidU1)
	target.Attribution.AttributedVolumeToLearningUnit = decimal.NewFromInt(10)

	err := tutor.AssignClass(target, 15)
	require.Error(t, err)

	errs := shared.BusinessErrors(err)
	require.Len(t, errs, 1)
	var tooHigh *attribution.AssignedVolumeTooHighError
	require.ErrorAs(t, errs[0], &tooHigh)
	assert.True(t, tooHigh.Volume.Equal(decimal.NewFromInt(15)))
	assert.True(t, tooHigh.AttributedVolume.Equal(decimal.NewFromInt(10)))
	assert.Empty(t, tutor.Repartitions())

	require.NoError(t, tutor.AssignClass(target, 10))
}

func TestAssignClass_NegativeVolume(t *testing.T) {
	err := newT1().AssignClass(targetX(uuidU1), "-1")

	var invalid *attribution.InvalidVolumeError
	assert.ErrorAs(t, err, &invalid)
}

func TestAssignClass_SameClassOtherAttribution(t *testing.T) {
	tutor := newT1()

	require.NoError(t, tutor.AssignClass(targetX(uuidU1), 10))
	require.NoError(t, tutor.AssignClass(targetX(uuidU2), 5))

	assert.Len(t, tutor.Repartitions(), 2)
	assert.True(t, tutor.DistributedVolumeOn(attribution.AttributionIdentity{UUID: uuidU1}).Equal(decimal.NewFromInt(10)))
	assert.True(t, tutor.DistributedVolumeOn(attribution.AttributionIdentity{UUID: uuidU2}).Equal(decimal.NewFromInt(5)))
}

func TestAssignClass_NonNumericStopsBeforeInvariants(t *testing.T) {
	for _, raw := range []any{"abc", true, nil, math.NaN(), math.Inf(1), float32(math.Inf(-1))} {
		tutor := newT1()
		target := targetX(uuidU1)
		target.Attribution.LearningUnit = learningunit.Identity{Code: "LOTHER1000", Year: 2020}

		err := tutor.AssignClass(target, raw)
		require.Error(t, err)

		errs := shared.BusinessErrors(err)
		require.Len(t, errs, 1, "raw=%v", raw)
		var numeric *attribution.VolumeShouldBeNumericError
		assert.ErrorAs(t, errs[0], &numeric)
		assert.Empty(t, tutor.Repartitions())
	}
}

func TestAssignClass_AttributionOnOtherUnit(t *testing.T) {
	target := targetX(uuidU1)
	target.Attribution.LearningUnit = learningunit.Identity{Code: "LOTHER1000", Year: 2020}

	err := newT1().AssignClass(target, 5)

	var mismatch *attribution.AttributionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uuidU1, mismatch.Attribution.UUID)
}

func TestAssignClass_CollectsEveryInvariant(t *testing.T) {
	tutor := newT1()
	require.NoError(t, tutor.AssignClass(targetX(uuidU1), 10))

	err := tutor.AssignClass(targetX(uuidU1), 30)
	require.Error(t, err)

	// available volume, attributed volume and duplicate pair
	assert.Len(t, shared.BusinessErrors(err), 3)
}

func TestDistributionTarget_TotalClassVolumeFallsBackOnPart(t *testing.T) {
	target := targetX(uuidU1)
	target.Class.Volumes = effectiveclass.ClassVolumes{}

	assert.True(t, target.TotalClassVolume().Equal(decimal.NewFromInt(30)))

	target.LearningUnit = nil
	assert.True(t, target.TotalClassVolume().IsZero())
}

// ══════════════════════════════════════════════════════════════════════════════
// EDIT AND UNASSIGN
// ══════════════════════════════════════════════════════════════════════════════

func TestEditClassVolume(t *testing.T) {
	tutor := newT1()
	require.NoError(t, tutor.AssignClass(targetX(uuidU1), 10))

	require.NoError(t, tutor.EditClassVolume(targetX(uuidU1), "12.5"))
	r, ok := tutor.RepartitionFor("x", uuidU1)
	require.True(t, ok)
	assert.True(t, r.DistributedVolume.Equal(decimal.RequireFromString("12.5")))

	err := tutor.EditClassVolume(targetX(uuidU1), 21)
	assert.Error(t, err)
	r, _ = tutor.RepartitionFor("X", uuidU1)
	assert.True(t, r.DistributedVolume.Equal(decimal.RequireFromString("12.5")))
}

func TestEditDistributedVolume_NoMatchIsNoop(t *testing.T) {
	tutor := newT1()
	require.NoError(t, tutor.AssignClass(targetX(uuidU1), 10))

	tutor.EditDistributedVolume("Y", uuidU1, decimal.NewFromInt(3))

	assert.True(t, tutor.Repartitions()[0].DistributedVolume.Equal(decimal.NewFromInt(10)))
}

func TestUnassignClass_Idempotent(t *testing.T) {
	tutor := newT1()
	require.NoError(t, tutor.AssignClass(targetX(uuidU1), 10))
	require.NoError(t, tutor.AssignClass(targetX(uuidU2), 5))

	tutor.UnassignClass("X", uuidU1)
	tutor.UnassignClass("X", uuidU1)

	reps := tutor.Repartitions()
	require.Len(t, reps, 1)
	assert.Equal(t, uuidU2, reps[0].Attribution.UUID)
	assert.False(t, tutor.IsAssignedTo(effectiveclass.Identity{ClassCode: "Y", LearningUnit: law2020}))
	assert.True(t, tutor.IsAssignedTo(classX().Identity))
}

func TestRepartitions_ReturnsCopy(t *testing.T) {
	tutor := newT1()
	require.NoError(t, tutor.AssignClass(targetX(uuidU1), 10))

	reps := tutor.Repartitions()
	reps[0].DistributedVolume = decimal.NewFromInt(99)

	assert.True(t, tutor.Repartitions()[0].DistributedVolume.Equal(decimal.NewFromInt(10)))
}

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

func TestClassVolumeRepartition_KeyEquality(t *testing.T) {
	a := attribution.ClassVolumeRepartition{
		EffectiveClass:    classX().Identity,
		Attribution:       attribution.AttributionIdentity{UUID: uuidU1},
		DistributedVolume: decimal.NewFromInt(10),
	}
	b := a
	b.DistributedVolume = decimal.NewFromInt(4)
	c := a
	c.Attribution = attribution.AttributionIdentity{UUID: uuidU2}

	assert.True(t, a.MatchesKey(b))
	assert.False(t, a.Equal(b))
	assert.False(t, a.MatchesKey(c))

	d := a
	d.DistributedVolume = decimal.RequireFromString("10.00")
	assert.True(t, a.Equal(d))
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		raw  any
		want string
		ok   bool
	}{
		{"10", "10", true},
		{" 2.5 ", "2.5", true},
		{12, "12", true},
		{int64(7), "7", true},
		{1.5, "1.5", true},
		{decimal.NewFromInt(3), "3", true},
		{decimal.NullDecimal{}, "0", false},
		{"ten", "0", false},
		{"NaN", "0", false},
		{math.NaN(), "0", false},
		{math.Inf(1), "0", false},
		{math.Inf(-1), "0", false},
		{float32(math.NaN()), "0", false},
		{false, "0", false},
		{nil, "0", false},
	}

	for _, tt := range tests {
		got, ok := attribution.ParseVolume(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%v", tt.raw)
		if ok {
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "raw=%v got=%s", tt.raw, got)
		}
	}
}

func TestNewAttributionIdentity_Canonical(t *testing.T) {
	id, err := attribution.NewAttributionIdentity(" 2F1C9A5E-3B1D-4B55-8A38-6F3C5D1F0A01 ")
	require.NoError(t, err)
	assert.Equal(t, uuidU1, id.UUID)

	_, err = attribution.NewAttributionIdentity("not-a-uuid")
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestNewTutorIdentity_Empty(t *testing.T) {
	_, err := attribution.NewTutorIdentity("  ")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestTutorDTO_RoundTrip(t *testing.T) {
	tutor := newT1()
	require.NoError(t, tutor.AssignClass(targetX(uuidU1), "7.5"))

	back, err := attribution.TutorFromDTO(tutor.ToDTO())
	require.NoError(t, err)
	assert.Equal(t, tutor.Identity, back.Identity)
	assert.Equal(t, tutor.FullName(), back.FullName())
	require.Len(t, back.Repartitions(), 1)
	assert.True(t, tutor.Repartitions()[0].Equal(back.Repartitions()[0]))
}

func TestTutorFromDTO_InvalidRepartition(t *testing.T) {
	dto := newT1().ToDTO()
	dto.Repartitions = append(dto.Repartitions, attribution.RepartitionDTO{
		ClassCode:        "X",
		LearningUnitCode: "LDROI1001",
		Year:             2020,
		AttributionUUID:  "broken",
	})

	_, err := attribution.TutorFromDTO(dto)
	assert.Error(t, err)
}

func TestFunction_IsValid(t *testing.T) {
	assert.True(t, attribution.FunctionCoHolder.IsValid())
	assert.True(t, attribution.Function("").IsValid())
	assert.False(t, attribution.Function("DEAN").IsValid())
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVICES
// ══════════════════════════════════════════════════════════════════════════════

func TestAssignedTutors_SortedNames(t *testing.T) {
	t1 := newT1()
	require.NoError(t, t1.AssignClass(targetX(uuidU1), 5))

	t2 := attribution.NewTutor(attribution.TutorIdentity{PersonalIDNumber: "00654321"}, "Pierre", "Dupont")
	target := targetX(uuidU2)
	require.NoError(t, t2.AssignClass(target, 5))

	t3 := attribution.NewTutor(attribution.TutorIdentity{PersonalIDNumber: "00999999"}, "Ada", "Byron")

	svc := attribution.NewAssignedTutors(inmemory.NewTutorRepository(t1, t2, t3))
	names, err := svc.AssignedTutorFullNames(context.Background(), classX().Identity)
	require.NoError(t, err)
	assert.Equal(t, []string{"CURIE Marie", "DUPONT Pierre"}, names)
}

func TestTutorFilter_LearningUnit(t *testing.T) {
	tutor := newT1()
	require.NoError(t, tutor.AssignClass(targetX(uuidU1), 5))

	other := learningunit.Identity{Code: "LOTHER1000", Year: 2020}
	assert.True(t, attribution.TutorFilter{LearningUnit: &law2020}.Matches(tutor))
	assert.False(t, attribution.TutorFilter{LearningUnit: &other}.Matches(tutor))
	assert.False(t, attribution.TutorFilter{
		Identities: []attribution.TutorIdentity{{PersonalIDNumber: "1"}},
	}.Matches(tutor))
}

func TestErrTutorNotFound_IsNotFound(t *testing.T) {
	assert.True(t, shared.IsNotFound(attribution.ErrTutorNotFound))
	assert.False(t, errors.Is(attribution.ErrTutorNotFound, attribution.ErrAssignedVolumeInvalidValue))
}
