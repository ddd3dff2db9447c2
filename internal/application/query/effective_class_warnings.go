// Package query contains the read use cases of the attribution core. They
// return DTOs, never aggregates.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ErrInvalidQuery is returned for malformed query parameters.
var ErrInvalidQuery = errors.New("invalid query")

// ══════════════════════════════════════════════════════════════════════════════
// GET EFFECTIVE CLASS WARNINGS QUERY
// Advisory data-quality checks of one class against its learning unit.
// ══════════════════════════════════════════════════════════════════════════════

// GetEffectiveClassWarningsQuery identifies the class to check.
type GetEffectiveClassWarningsQuery struct {
	ClassCode        string
	LearningUnitCode string
	Year             int
}

// ClassWarningsDTO holds the warnings of one class.
type ClassWarningsDTO struct {
	ClassCode       string   `json:"class_code"`
	CompleteAcronym string   `json:"complete_acronym"`
	Warnings        []string `json:"warnings"`
}

// GetEffectiveClassWarningsHandler handles GetEffectiveClassWarningsQuery.
type GetEffectiveClassWarningsHandler struct {
	classes effectiveclass.Repository
	units   learningunit.Repository
}

// NewGetEffectiveClassWarningsHandler creates a new handler.
func NewGetEffectiveClassWarningsHandler(classes effectiveclass.Repository, units learningunit.Repository) *GetEffectiveClassWarningsHandler {
	return &GetEffectiveClassWarningsHandler{classes: classes, units: units}
}

// Handle returns the warnings of the class; an empty list means none.
func (h *GetEffectiveClassWarningsHandler) Handle(ctx context.Context, q GetEffectiveClassWarningsQuery) (*ClassWarningsDTO, error) {
	classID, err := effectiveclass.BuildIdentity(q.ClassCode, q.LearningUnitCode, q.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	lu, err := getLearningUnit(ctx, h.units, classID.LearningUnit)
	if err != nil {
		return nil, err
	}
	class, err := h.classes.Get(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("load class %s: %w", classID, err)
	}

	return &ClassWarningsDTO{
		ClassCode:       class.ClassCode(),
		CompleteAcronym: class.CompleteAcronym(),
		Warnings:        effectiveclass.Warnings(class, lu),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNING UNIT WARNINGS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetLearningUnitWarningsQuery identifies the learning unit to check.
type GetLearningUnitWarningsQuery struct {
	LearningUnitCode string
	Year             int
}

// GetLearningUnitWarningsHandler checks every class of a learning unit.
type GetLearningUnitWarningsHandler struct {
	classes effectiveclass.Repository
	units   learningunit.Repository
}

// NewGetLearningUnitWarningsHandler creates a new handler.
func NewGetLearningUnitWarningsHandler(classes effectiveclass.Repository, units learningunit.Repository) *GetLearningUnitWarningsHandler {
	return &GetLearningUnitWarningsHandler{classes: classes, units: units}
}

// Handle returns the classes that have warnings, ordered by class code.
func (h *GetLearningUnitWarningsHandler) Handle(ctx context.Context, q GetLearningUnitWarningsQuery) ([]ClassWarningsDTO, error) {
	luID, err := learningunit.NewIdentity(q.LearningUnitCode, q.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	lu, err := getLearningUnit(ctx, h.units, luID)
	if err != nil {
		return nil, err
	}
	classes, err := h.classes.Search(ctx, effectiveclass.SearchFilter{LearningUnit: &luID})
	if err != nil {
		return nil, fmt.Errorf("search classes of %s: %w", luID, err)
	}

	out := make([]ClassWarningsDTO, 0, len(classes))
	for _, class := range classes {
		warnings := effectiveclass.Warnings(class, lu)
		if len(warnings) == 0 {
			continue
		}
		out = append(out, ClassWarningsDTO{
			ClassCode:       class.ClassCode(),
			CompleteAcronym: class.CompleteAcronym(),
			Warnings:        warnings,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassCode < out[j].ClassCode })
	return out, nil
}

func getLearningUnit(ctx context.Context, units learningunit.Repository, id learningunit.Identity) (*learningunit.LearningUnit, error) {
	lu, err := units.Get(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, &learningunit.NotExistingError{Code: id.Code, Year: id.Year}
		}
		return nil, fmt.Errorf("load learning unit %s: %w", id, err)
	}
	return lu, nil
}
