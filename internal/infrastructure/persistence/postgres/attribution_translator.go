package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// TutorAttributionTranslator reads attributions joined with their tutor's names.
type TutorAttributionTranslator struct {
	conn *Connection
}

var _ attribution.TutorAttributionTranslator = (*TutorAttributionTranslator)(nil)

// NewTutorAttributionTranslator creates a new TutorAttributionTranslator.
func NewTutorAttributionTranslator(conn *Connection) *TutorAttributionTranslator {
	return &TutorAttributionTranslator{conn: conn}
}

const attributionSelect = `
	SELECT a.uuid::text, a.personal_id_number, t.first_name, t.last_name,
		a.function, a.code, a.year, a.attributed_volume
	FROM attributions a
	JOIN tutors t ON t.personal_id_number = a.personal_id_number`

func scanTutorAttribution(row pgx.CollectableRow) (attribution.TutorAttribution, error) {
	var (
		uuid, personalID, firstName, lastName, function, code string
		year                                                  int
		volume                                                decimal.Decimal
	)
	if err := row.Scan(&uuid, &personalID, &firstName, &lastName, &function, &code, &year, &volume); err != nil {
		return attribution.TutorAttribution{}, err
	}
	return attribution.TutorAttribution{
		Attribution:                    attribution.AttributionIdentity{UUID: uuid},
		Tutor:                          attribution.TutorIdentity{PersonalIDNumber: personalID},
		FirstName:                      firstName,
		LastName:                       lastName,
		Function:                       attribution.Function(function),
		LearningUnit:                   learningunit.Identity{Code: code, Year: shared.AcademicYear(year)},
		AttributedVolumeToLearningUnit: volume,
	}, nil
}

func (t *TutorAttributionTranslator) collect(ctx context.Context, query string, args ...any) ([]attribution.TutorAttribution, error) {
	rows, err := t.conn.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributions: %w", err)
	}

	attrs, err := pgx.CollectRows(rows, scanTutorAttribution)
	if err != nil {
		return nil, fmt.Errorf("failed to scan attributions: %w", err)
	}
	return attrs, nil
}

// SearchAttributionsToLearningUnit returns the attributions on lu.
func (t *TutorAttributionTranslator) SearchAttributionsToLearningUnit(
	ctx context.Context,
	lu learningunit.Identity,
) ([]attribution.TutorAttribution, error) {
	return t.collect(ctx, attributionSelect+` WHERE a.code = $1 AND a.year = $2 ORDER BY a.uuid`, lu.Code, lu.Year.Int())
}

// GetLearningUnitAttribution returns one attribution.
func (t *TutorAttributionTranslator) GetLearningUnitAttribution(
	ctx context.Context,
	id attribution.AttributionIdentity,
) (attribution.TutorAttribution, error) {
	attrs, err := t.collect(ctx, attributionSelect+` WHERE a.uuid = $1`, id.UUID)
	if err != nil {
		return attribution.TutorAttribution{}, err
	}
	if len(attrs) == 0 {
		return attribution.TutorAttribution{}, attribution.ErrAttributionNotFound
	}
	return attrs[0], nil
}

// GetByTeacher returns the tutor's attributions for year.
func (t *TutorAttributionTranslator) GetByTeacher(
	ctx context.Context,
	tutor attribution.TutorIdentity,
	year int,
) ([]attribution.TutorAttribution, error) {
	return t.collect(ctx,
		attributionSelect+` WHERE a.personal_id_number = $1 AND a.year = $2 ORDER BY a.uuid`,
		tutor.PersonalIDNumber, year,
	)
}

// Save upserts an attribution and its tutor's names. Attributions are owned
// upstream; this is used to load fixtures.
func (t *TutorAttributionTranslator) Save(ctx context.Context, a attribution.TutorAttribution) error {
	return t.conn.withinTx(ctx, func(q Querier) error {
		if _, err := q.Exec(ctx, `
			INSERT INTO tutors (personal_id_number, first_name, last_name)
			VALUES ($1, $2, $3)
			ON CONFLICT (personal_id_number) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name
		`, a.Tutor.PersonalIDNumber, a.FirstName, a.LastName); err != nil {
			return fmt.Errorf("failed to save tutor %s: %w", a.Tutor.PersonalIDNumber, err)
		}

		if _, err := q.Exec(ctx, `
			INSERT INTO attributions (uuid, personal_id_number, function, code, year, attributed_volume)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (uuid) DO UPDATE SET
				personal_id_number = EXCLUDED.personal_id_number,
				function = EXCLUDED.function,
				code = EXCLUDED.code,
				year = EXCLUDED.year,
				attributed_volume = EXCLUDED.attributed_volume
		`, a.Attribution.UUID, a.Tutor.PersonalIDNumber, string(a.Function),
			a.LearningUnit.Code, a.LearningUnit.Year.Int(), a.AttributedVolumeToLearningUnit); err != nil {
			return fmt.Errorf("failed to save attribution %s: %w", a.Attribution.UUID, err)
		}

		return nil
	})
}
