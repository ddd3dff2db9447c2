package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEARCH ATTRIBUTIONS TO LEARNING UNIT QUERY
// Lists the tutors attributed to a learning unit with the class volumes
// already distributed to them.
// ══════════════════════════════════════════════════════════════════════════════

// SearchAttributionsToLearningUnitQuery identifies the learning unit.
type SearchAttributionsToLearningUnitQuery struct {
	LearningUnitCode string
	Year             int
}

// TutorAttributionDTO is one attribution on the learning unit.
type TutorAttributionDTO struct {
	AttributionUUID                string                `json:"attribution_uuid"`
	Function                       string                `json:"function"`
	TutorPersonalIDNumber          string                `json:"tutor_personal_id_number"`
	TutorFullName                  string                `json:"tutor_full_name"`
	AttributedVolumeToLearningUnit decimal.Decimal       `json:"attributed_volume_to_learning_unit"`
	DistributedVolume              decimal.Decimal       `json:"distributed_volume"`
	Classes                        []DistributedClassDTO `json:"classes"`
}

// DistributedClassDTO is a class volume distributed under the attribution.
type DistributedClassDTO struct {
	ClassCode         string          `json:"class_code"`
	DistributedVolume decimal.Decimal `json:"distributed_volume"`
}

// SearchAttributionsToLearningUnitHandler handles the query.
type SearchAttributionsToLearningUnitHandler struct {
	attributions attribution.TutorAttributionTranslator
	tutors       attribution.TutorRepository
}

// NewSearchAttributionsToLearningUnitHandler creates a new handler.
func NewSearchAttributionsToLearningUnitHandler(
	attributions attribution.TutorAttributionTranslator,
	tutors attribution.TutorRepository,
) *SearchAttributionsToLearningUnitHandler {
	return &SearchAttributionsToLearningUnitHandler{attributions: attributions, tutors: tutors}
}

// Handle returns the attributions ordered by tutor full name.
func (h *SearchAttributionsToLearningUnitHandler) Handle(
	ctx context.Context,
	q SearchAttributionsToLearningUnitQuery,
) ([]TutorAttributionDTO, error) {
	luID, err := learningunit.NewIdentity(q.LearningUnitCode, q.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	attrs, err := h.attributions.SearchAttributionsToLearningUnit(ctx, luID)
	if err != nil {
		return nil, fmt.Errorf("search attributions of %s: %w", luID, err)
	}
	tutors, err := h.tutors.Search(ctx, attribution.TutorFilter{LearningUnit: &luID})
	if err != nil {
		return nil, fmt.Errorf("search tutors of %s: %w", luID, err)
	}

	byAttribution := make(map[attribution.AttributionIdentity][]attribution.ClassVolumeRepartition)
	for _, t := range tutors {
		for _, r := range t.Repartitions() {
			if r.EffectiveClass.LearningUnit == luID {
				byAttribution[r.Attribution] = append(byAttribution[r.Attribution], r)
			}
		}
	}

	out := make([]TutorAttributionDTO, 0, len(attrs))
	for _, a := range attrs {
		dto := TutorAttributionDTO{
			AttributionUUID:                a.Attribution.UUID,
			Function:                       string(a.Function),
			TutorPersonalIDNumber:          a.Tutor.PersonalIDNumber,
			TutorFullName:                  a.FullName(),
			AttributedVolumeToLearningUnit: a.AttributedVolumeToLearningUnit,
			DistributedVolume:              decimal.Zero,
			Classes:                        make([]DistributedClassDTO, 0),
		}
		for _, r := range byAttribution[a.Attribution] {
			dto.DistributedVolume = dto.DistributedVolume.Add(r.DistributedVolume)
			dto.Classes = append(dto.Classes, DistributedClassDTO{
				ClassCode:         r.EffectiveClass.ClassCode,
				DistributedVolume: r.DistributedVolume,
			})
		}
		sort.Slice(dto.Classes, func(i, j int) bool { return dto.Classes[i].ClassCode < dto.Classes[j].ClassCode })
		out = append(out, dto)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TutorFullName < out[j].TutorFullName })
	return out, nil
}
