package attribution

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
)

// TutorDTO is the flat form tutors are stored and cached in.
type TutorDTO struct {
	PersonalIDNumber string           `json:"personal_id_number" yaml:"personal_id_number"`
	FirstName        string           `json:"first_name" yaml:"first_name"`
	LastName         string           `json:"last_name" yaml:"last_name"`
	Repartitions     []RepartitionDTO `json:"repartitions" yaml:"repartitions"`
}

// RepartitionDTO is the flat form of a ClassVolumeRepartition.
type RepartitionDTO struct {
	ClassCode         string          `json:"class_code" yaml:"class_code"`
	LearningUnitCode  string          `json:"learning_unit_code" yaml:"learning_unit_code"`
	Year              int             `json:"year" yaml:"year"`
	AttributionUUID   string          `json:"attribution_uuid" yaml:"attribution_uuid"`
	DistributedVolume decimal.Decimal `json:"distributed_volume" yaml:"distributed_volume"`
}

// ToDTO flattens the tutor.
func (t *Tutor) ToDTO() TutorDTO {
	dto := TutorDTO{
		PersonalIDNumber: t.Identity.PersonalIDNumber,
		FirstName:        t.FirstName,
		LastName:         t.LastName,
		Repartitions:     make([]RepartitionDTO, 0, len(t.repartitions)),
	}
	for _, r := range t.repartitions {
		dto.Repartitions = append(dto.Repartitions, RepartitionDTO{
			ClassCode:         r.EffectiveClass.ClassCode,
			LearningUnitCode:  r.EffectiveClass.LearningUnit.Code,
			Year:              r.EffectiveClass.LearningUnit.Year.Int(),
			AttributionUUID:   r.Attribution.UUID,
			DistributedVolume: r.DistributedVolume,
		})
	}
	return dto
}

// TutorFromDTO rebuilds a tutor, validating every identity.
func TutorFromDTO(dto TutorDTO) (*Tutor, error) {
	id, err := NewTutorIdentity(dto.PersonalIDNumber)
	if err != nil {
		return nil, err
	}
	reps := make([]ClassVolumeRepartition, 0, len(dto.Repartitions))
	for _, r := range dto.Repartitions {
		classID, err := effectiveclass.BuildIdentity(r.ClassCode, r.LearningUnitCode, r.Year)
		if err != nil {
			return nil, fmt.Errorf("repartition of tutor %s: %w", id, err)
		}
		attributionID, err := NewAttributionIdentity(r.AttributionUUID)
		if err != nil {
			return nil, fmt.Errorf("repartition of tutor %s: %w", id, err)
		}
		reps = append(reps, ClassVolumeRepartition{
			EffectiveClass:    classID,
			Attribution:       attributionID,
			DistributedVolume: r.DistributedVolume,
		})
	}
	return NewTutor(id, dto.FirstName, dto.LastName, reps...), nil
}
