package query

import (
	"context"
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

var law2020 = learningunit.Identity{Code: "LDROI1001", Year: 2020}

func lawUnit() *learningunit.LearningUnit {
	return &learningunit.LearningUnit{
		Identity:               law2020,
		Type:                   learningunit.TypeCourse,
		DerogationQuadrimester: learningunit.Q1,
		LecturingPart: learningunit.Part{Volumes: learningunit.Volumes{
			VolumeFirstQuadrimester:  shared.Hours(10),
			VolumeSecondQuadrimester: shared.Hours(20),
			VolumeAnnual:             shared.Hours(30),
		}},
	}
}

func lecturingClass(code string, q1, q2 decimal.NullDecimal) *effectiveclass.EffectiveClass {
	return &effectiveclass.EffectiveClass{
		Identity: effectiveclass.Identity{ClassCode: code, LearningUnit: law2020},
		Type:     effectiveclass.TypeLecturing,
		Volumes:  effectiveclass.ClassVolumes{VolumeFirstQuadrimester: q1, VolumeSecondQuadrimester: q2},
	}
}

func repartition(code, attributionUUID string, volume int64) attribution.ClassVolumeRepartition {
	return attribution.ClassVolumeRepartition{
		EffectiveClass:    effectiveclass.Identity{ClassCode: code, LearningUnit: law2020},
		Attribution:       attribution.AttributionIdentity{UUID: attributionUUID},
		DistributedVolume: decimal.NewFromInt(volume),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WARNINGS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetEffectiveClassWarnings(t *testing.T) {
	ctx := context.Background()
	classes := inmemory.NewEffectiveClassRepository(
		lecturingClass("A", shared.Hours(10), shared.Hours(20)),
		lecturingClass("B", shared.Hours(15), shared.NoHours),
	)
	h := NewGetEffectiveClassWarningsHandler(classes, inmemory.NewLearningUnitRepository(lawUnit()))

	dto, err := h.Handle(ctx, GetEffectiveClassWarningsQuery{ClassCode: "a", LearningUnitCode: "LDROI1001", Year: 2020})
	require.NoError(t, err)
	assert.Equal(t, "LDROI1001-A", dto.CompleteAcronym)
	assert.Empty(t, dto.Warnings)
	assert.NotNil(t, dto.Warnings)

	dto, err = h.Handle(ctx, GetEffectiveClassWarningsQuery{ClassCode: "B", LearningUnitCode: "LDROI1001", Year: 2020})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"The volume of Q1 of class LDROI1001-B (15) is greater than the Q1 volume of the learning unit (10)",
	}, dto.Warnings)
}

func TestGetEffectiveClassWarnings_Errors(t *testing.T) {
	ctx := context.Background()
	h := NewGetEffectiveClassWarningsHandler(
		inmemory.NewEffectiveClassRepository(),
		inmemory.NewLearningUnitRepository(lawUnit()),
	)

	_, err := h.Handle(ctx, GetEffectiveClassWarningsQuery{ClassCode: "AB", LearningUnitCode: "LDROI1001", Year: 2020})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = h.Handle(ctx, GetEffectiveClassWarningsQuery{ClassCode: "A", LearningUnitCode: "LDROI1001", Year: 2020})
	assert.ErrorIs(t, err, effectiveclass.ErrEffectiveClassNotFound)

	_, err = h.Handle(ctx, GetEffectiveClassWarningsQuery{ClassCode: "A", LearningUnitCode: "LBIR1100", Year: 2020})
	var missing *learningunit.NotExistingError
	assert.ErrorAs(t, err, &missing)
}

func TestGetLearningUnitWarnings_OnlyClassesWithWarnings(t *testing.T) {
	q2Class := lecturingClass("C", shared.NoHours, shared.Hours(5))
	q2Class.DerogationQuadrimester = learningunit.Q2

	classes := inmemory.NewEffectiveClassRepository(
		q2Class,
		lecturingClass("A", shared.Hours(10), shared.Hours(20)),
		lecturingClass("B", shared.Hours(15), shared.NoHours),
	)
	h := NewGetLearningUnitWarningsHandler(classes, inmemory.NewLearningUnitRepository(lawUnit()))

	out, err := h.Handle(context.Background(), GetLearningUnitWarningsQuery{LearningUnitCode: "LDROI1001", Year: 2020})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "B", out[0].ClassCode)
	assert.Equal(t, "C", out[1].ClassCode)
	require.Len(t, out[1].Warnings, 1)
	assert.Contains(t, out[1].Warnings[0], "The quadrimester of class LDROI1001-C (Q2)")
}

// ══════════════════════════════════════════════════════════════════════════════
// TUTOR REPARTITIONS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetTutorRepartitions(t *testing.T) {
	practical := &effectiveclass.EffectiveClass{
		Identity: effectiveclass.Identity{ClassCode: "1", LearningUnit: law2020},
		Type:     effectiveclass.TypePractical,
	}
	classes := inmemory.NewEffectiveClassRepository(lecturingClass("B", shared.Hours(10), shared.NoHours), practical)
	tutors := inmemory.NewTutorRepository(attribution.NewTutor(
		attribution.TutorIdentity{PersonalIDNumber: "00321234"}, "Marie", "Curie",
		repartition("B", "2f1c9a5e-3b1d-4b55-8a38-6f3c5d1f0a01", 5),
		repartition("1", "2f1c9a5e-3b1d-4b55-8a38-6f3c5d1f0a01", 3),
		repartition("Z", "2f1c9a5e-3b1d-4b55-8a38-6f3c5d1f0a01", 2),
	))

	dto, err := NewGetTutorRepartitionsHandler(tutors, classes).Handle(context.Background(),
		GetTutorRepartitionsQuery{TutorPersonalIDNumber: "00321234"})
	require.NoError(t, err)

	assert.Equal(t, "CURIE Marie", dto.FullName)
	assert.Equal(t, "10", dto.TotalVolume.String())
	require.Len(t, dto.Repartitions, 3)
	assert.Equal(t, "LDROI1001-B", dto.Repartitions[0].ClassCompleteAcronym)
	assert.Equal(t, "LDROI1001-Z", dto.Repartitions[1].ClassCompleteAcronym)
	assert.Equal(t, "LDROI1001_1", dto.Repartitions[2].ClassCompleteAcronym)
	assert.Equal(t, 2020, dto.Repartitions[0].Year)
}

func TestGetTutorRepartitions_Errors(t *testing.T) {
	h := NewGetTutorRepartitionsHandler(inmemory.NewTutorRepository(), inmemory.NewEffectiveClassRepository())

	_, err := h.Handle(context.Background(), GetTutorRepartitionsQuery{})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = h.Handle(context.Background(), GetTutorRepartitionsQuery{TutorPersonalIDNumber: "00000001"})
	assert.ErrorIs(t, err, attribution.ErrTutorNotFound)
}

// ══════════════════════════════════════════════════════════════════════════════
// SEARCH ATTRIBUTIONS
// ══════════════════════════════════════════════════════════════════════════════

func TestSearchAttributionsToLearningUnit(t *testing.T) {
	const (
		u1 = "2f1c9a5e-3b1d-4b55-8a38-6f3c5d1f0a01"
		u2 = "7a9d2c41-8e6b-4f0a-b3c5-1d2e3f405162"
	)
	curie := attribution.TutorIdentity{PersonalIDNumber: "00321234"}
	dupont := attribution.TutorIdentity{PersonalIDNumber: "00654321"}

	translator := inmemory.NewTutorAttributionTranslator(
		attribution.TutorAttribution{
			Attribution: attribution.AttributionIdentity{UUID: u2}, Tutor: dupont,
			FirstName: "Pierre", LastName: "Dupont", Function: attribution.FunctionCoHolder,
			LearningUnit: law2020, AttributedVolumeToLearningUnit: decimal.NewFromInt(15),
		},
		attribution.TutorAttribution{
			Attribution: attribution.AttributionIdentity{UUID: u1}, Tutor: curie,
			FirstName: "Marie", LastName: "Curie", Function: attribution.FunctionHolder,
			LearningUnit: law2020, AttributedVolumeToLearningUnit: decimal.NewFromInt(20),
		},
		attribution.TutorAttribution{
			Attribution: attribution.AttributionIdentity{UUID: "0b6f2d1e-4c3a-4e8b-9f1a-2d3c4b5a6978"}, Tutor: curie,
			FirstName: "Marie", LastName: "Curie", Function: attribution.FunctionHolder,
			LearningUnit:                   learningunit.Identity{Code: "LDROI1001", Year: 2021},
			AttributedVolumeToLearningUnit: decimal.NewFromInt(20),
		},
	)
	tutors := inmemory.NewTutorRepository(attribution.NewTutor(curie, "Marie", "Curie",
		repartition("B", u1, 5),
		repartition("A", u1, 7),
	))

	out, err := NewSearchAttributionsToLearningUnitHandler(translator, tutors).Handle(context.Background(),
		SearchAttributionsToLearningUnitQuery{LearningUnitCode: "ldroi1001", Year: 2020})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "CURIE Marie", out[0].TutorFullName)
	assert.Equal(t, "HOLDER", out[0].Function)
	assert.Equal(t, "12", out[0].DistributedVolume.String())
	require.Len(t, out[0].Classes, 2)
	assert.Equal(t, "A", out[0].Classes[0].ClassCode)

	assert.Equal(t, "DUPONT Pierre", out[1].TutorFullName)
	assert.True(t, out[1].DistributedVolume.IsZero())
	assert.NotNil(t, out[1].Classes)
	assert.Empty(t, out[1].Classes)
}

func TestSearchAttributionsToLearningUnit_InvalidCode(t *testing.T) {
	h := NewSearchAttributionsToLearningUnitHandler(inmemory.NewTutorAttributionTranslator(), inmemory.NewTutorRepository())

	_, err := h.Handle(context.Background(), SearchAttributionsToLearningUnitQuery{LearningUnitCode: "?", Year: 2020})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
