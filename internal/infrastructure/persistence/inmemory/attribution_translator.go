package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
)

// TutorAttributionTranslator is an in-memory attribution.TutorAttributionTranslator.
type TutorAttributionTranslator struct {
	mu           sync.RWMutex
	attributions map[attribution.AttributionIdentity]attribution.TutorAttribution
}

var _ attribution.TutorAttributionTranslator = (*TutorAttributionTranslator)(nil)

// NewTutorAttributionTranslator creates a translator holding attrs.
func NewTutorAttributionTranslator(attrs ...attribution.TutorAttribution) *TutorAttributionTranslator {
	t := &TutorAttributionTranslator{attributions: make(map[attribution.AttributionIdentity]attribution.TutorAttribution)}
	for _, a := range attrs {
		t.attributions[a.Attribution] = a
	}
	return t
}

// Add stores or replaces an attribution.
func (t *TutorAttributionTranslator) Add(a attribution.TutorAttribution) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.attributions[a.Attribution] = a
}

func (t *TutorAttributionTranslator) SearchAttributionsToLearningUnit(
	_ context.Context,
	lu learningunit.Identity,
) ([]attribution.TutorAttribution, error) {
	return t.filter(func(a attribution.TutorAttribution) bool { return a.LearningUnit == lu }), nil
}

func (t *TutorAttributionTranslator) GetLearningUnitAttribution(
	_ context.Context,
	id attribution.AttributionIdentity,
) (attribution.TutorAttribution, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	a, ok := t.attributions[id]
	if !ok {
		return attribution.TutorAttribution{}, attribution.ErrAttributionNotFound
	}
	return a, nil
}

func (t *TutorAttributionTranslator) GetByTeacher(
	_ context.Context,
	tutor attribution.TutorIdentity,
	year int,
) ([]attribution.TutorAttribution, error) {
	return t.filter(func(a attribution.TutorAttribution) bool {
		return a.Tutor == tutor && a.LearningUnit.Year.Int() == year
	}), nil
}

func (t *TutorAttributionTranslator) filter(keep func(attribution.TutorAttribution) bool) []attribution.TutorAttribution {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]attribution.TutorAttribution, 0)
	for _, a := range t.attributions {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attribution.UUID < out[j].Attribution.UUID })
	return out
}
