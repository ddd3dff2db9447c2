package attribution

import (
	"context"
	"sort"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
)

// AssignedTutors answers effectiveclass.TutorAssignedService from a
// TutorRepository.
type AssignedTutors struct {
	tutors TutorRepository
}

var _ effectiveclass.TutorAssignedService = (*AssignedTutors)(nil)

// NewAssignedTutors creates the service.
func NewAssignedTutors(tutors TutorRepository) *AssignedTutors {
	return &AssignedTutors{tutors: tutors}
}

// AssignedTutorFullNames returns the sorted full names of the tutors
// teaching on the class.
func (s *AssignedTutors) AssignedTutorFullNames(ctx context.Context, id effectiveclass.Identity) ([]string, error) {
	tutors, err := s.tutors.Search(ctx, TutorFilter{EffectiveClass: &id})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tutors))
	for _, t := range tutors {
		names = append(names, t.FullName())
	}
	sort.Strings(names)
	return names, nil
}
