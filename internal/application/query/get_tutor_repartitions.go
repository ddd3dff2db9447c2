package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TUTOR REPARTITIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetTutorRepartitionsQuery identifies the tutor.
type GetTutorRepartitionsQuery struct {
	TutorPersonalIDNumber string
}

// TutorRepartitionsDTO lists what a tutor teaches.
type TutorRepartitionsDTO struct {
	PersonalIDNumber string                `json:"personal_id_number"`
	FullName         string                `json:"full_name"`
	TotalVolume      decimal.Decimal       `json:"total_volume"`
	Repartitions     []ClassRepartitionDTO `json:"repartitions"`
}

// ClassRepartitionDTO is one class volume taught by a tutor.
type ClassRepartitionDTO struct {
	ClassCode            string          `json:"class_code"`
	ClassCompleteAcronym string          `json:"class_complete_acronym"`
	LearningUnitCode     string          `json:"learning_unit_code"`
	Year                 int             `json:"year"`
	AttributionUUID      string          `json:"attribution_uuid"`
	DistributedVolume    decimal.Decimal `json:"distributed_volume"`
}

// GetTutorRepartitionsHandler handles GetTutorRepartitionsQuery.
type GetTutorRepartitionsHandler struct {
	tutors  attribution.TutorRepository
	classes effectiveclass.Repository
}

// NewGetTutorRepartitionsHandler creates a new handler.
func NewGetTutorRepartitionsHandler(tutors attribution.TutorRepository, classes effectiveclass.Repository) *GetTutorRepartitionsHandler {
	return &GetTutorRepartitionsHandler{tutors: tutors, classes: classes}
}

// Handle returns the tutor's repartitions ordered by complete acronym.
func (h *GetTutorRepartitionsHandler) Handle(ctx context.Context, q GetTutorRepartitionsQuery) (*TutorRepartitionsDTO, error) {
	tutorID, err := attribution.NewTutorIdentity(q.TutorPersonalIDNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	tutor, err := h.tutors.Get(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("load tutor %s: %w", tutorID, err)
	}

	reps := tutor.Repartitions()
	acronyms, err := h.completeAcronyms(ctx, reps)
	if err != nil {
		return nil, err
	}

	dto := &TutorRepartitionsDTO{
		PersonalIDNumber: tutorID.PersonalIDNumber,
		FullName:         tutor.FullName(),
		TotalVolume:      decimal.Zero,
		Repartitions:     make([]ClassRepartitionDTO, 0, len(reps)),
	}
	for _, r := range reps {
		dto.TotalVolume = dto.TotalVolume.Add(r.DistributedVolume)
		dto.Repartitions = append(dto.Repartitions, ClassRepartitionDTO{
			ClassCode:            r.EffectiveClass.ClassCode,
			ClassCompleteAcronym: acronyms[r.EffectiveClass],
			LearningUnitCode:     r.EffectiveClass.LearningUnit.Code,
			Year:                 r.EffectiveClass.LearningUnit.Year.Int(),
			AttributionUUID:      r.Attribution.UUID,
			DistributedVolume:    r.DistributedVolume,
		})
	}
	sort.SliceStable(dto.Repartitions, func(i, j int) bool {
		return dto.Repartitions[i].ClassCompleteAcronym < dto.Repartitions[j].ClassCompleteAcronym
	})
	return dto, nil
}

// completeAcronyms resolves the display code of every class in one search.
// Classes deleted since the assignment fall back to "CODE-X".
func (h *GetTutorRepartitionsHandler) completeAcronyms(
	ctx context.Context,
	reps []attribution.ClassVolumeRepartition,
) (map[effectiveclass.Identity]string, error) {
	out := make(map[effectiveclass.Identity]string, len(reps))
	if len(reps) == 0 {
		return out, nil
	}
	ids := make([]effectiveclass.Identity, 0, len(reps))
	for _, r := range reps {
		ids = append(ids, r.EffectiveClass)
		out[r.EffectiveClass] = r.EffectiveClass.LearningUnit.Code + effectiveclass.TypeLecturing.Separator() + r.EffectiveClass.ClassCode
	}
	classes, err := h.classes.Search(ctx, effectiveclass.SearchFilter{Identities: ids})
	if err != nil {
		return nil, fmt.Errorf("search classes: %w", err)
	}
	for _, c := range classes {
		out[c.Identity] = c.CompleteAcronym()
	}
	return out, nil
}
