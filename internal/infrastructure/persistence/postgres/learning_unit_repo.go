package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING UNIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearningUnitRepository implements learningunit.Repository for PostgreSQL.
type LearningUnitRepository struct {
	conn *Connection
}

var _ learningunit.Repository = (*LearningUnitRepository)(nil)

// NewLearningUnitRepository creates a new LearningUnitRepository.
func NewLearningUnitRepository(conn *Connection) *LearningUnitRepository {
	return &LearningUnitRepository{conn: conn}
}

const learningUnitColumns = `
	code, year, type, title_fr, title_en, credits,
	derogation_quadrimester, derogation_session,
	lecturing_acronym, lecturing_volume_q1, lecturing_volume_q2, lecturing_volume_annual,
	lecturing_planned_classes, lecturing_repartition_main,
	lecturing_repartition_additional_1, lecturing_repartition_additional_2,
	practical_acronym, practical_volume_q1, practical_volume_q2, practical_volume_annual,
	practical_planned_classes, practical_repartition_main,
	practical_repartition_additional_1, practical_repartition_additional_2,
	external_acronym, external_credits, mobility`

// learningUnitRow mirrors one learning_units row.
type learningUnitRow struct {
	Code                   string
	Year                   int
	Type                   string
	TitleFr                string
	TitleEn                string
	Credits                decimal.Decimal
	DerogationQuadrimester string
	DerogationSession      string
	Lecturing              partColumns
	Practical              partColumns
	ExternalAcronym        *string
	ExternalCredits        decimal.NullDecimal
	Mobility               *bool
}

type partColumns struct {
	Acronym        string
	VolumeQ1       decimal.NullDecimal
	VolumeQ2       decimal.NullDecimal
	VolumeAnnual   decimal.NullDecimal
	PlannedClasses int
	Main           decimal.NullDecimal
	Additional1    decimal.NullDecimal
	Additional2    decimal.NullDecimal
}

func (p *partColumns) targets() []any {
	return []any{&p.Acronym, &p.VolumeQ1, &p.VolumeQ2, &p.VolumeAnnual, &p.PlannedClasses, &p.Main, &p.Additional1, &p.Additional2}
}

func (p partColumns) args() []any {
	return []any{p.Acronym, p.VolumeQ1, p.VolumeQ2, p.VolumeAnnual, p.PlannedClasses, p.Main, p.Additional1, p.Additional2}
}

func (p partColumns) toDomain() learningunit.Part {
	return learningunit.Part{
		Acronym: p.Acronym,
		Volumes: learningunit.Volumes{
			VolumeFirstQuadrimester:  p.VolumeQ1,
			VolumeSecondQuadrimester: p.VolumeQ2,
			VolumeAnnual:             p.VolumeAnnual,
			PlannedClasses:           p.PlannedClasses,
			VolumesRepartition: learningunit.VolumesRepartition{
				RequirementEntity:            p.Main,
				AdditionalRequirementEntity1: p.Additional1,
				AdditionalRequirementEntity2: p.Additional2,
			},
		},
	}
}

func partColumnsFrom(p learningunit.Part) partColumns {
	v := p.Volumes
	return partColumns{
		Acronym:        p.Acronym,
		VolumeQ1:       v.VolumeFirstQuadrimester,
		VolumeQ2:       v.VolumeSecondQuadrimester,
		VolumeAnnual:   v.VolumeAnnual,
		PlannedClasses: v.PlannedClasses,
		Main:           v.VolumesRepartition.RequirementEntity,
		Additional1:    v.VolumesRepartition.AdditionalRequirementEntity1,
		Additional2:    v.VolumesRepartition.AdditionalRequirementEntity2,
	}
}

func (r *learningUnitRow) targets() []any {
	out := []any{
		&r.Code, &r.Year, &r.Type, &r.TitleFr, &r.TitleEn, &r.Credits,
		&r.DerogationQuadrimester, &r.DerogationSession,
	}
	out = append(out, r.Lecturing.targets()...)
	out = append(out, r.Practical.targets()...)
	return append(out, &r.ExternalAcronym, &r.ExternalCredits, &r.Mobility)
}

func (r learningUnitRow) args() []any {
	out := []any{
		r.Code, r.Year, r.Type, r.TitleFr, r.TitleEn, r.Credits,
		r.DerogationQuadrimester, r.DerogationSession,
	}
	out = append(out, r.Lecturing.args()...)
	out = append(out, r.Practical.args()...)
	return append(out, r.ExternalAcronym, r.ExternalCredits, r.Mobility)
}

// toDomain rebuilds the aggregate. Partims are loaded separately.
func (r learningUnitRow) toDomain() *learningunit.LearningUnit {
	lu := &learningunit.LearningUnit{
		Identity:               learningunit.Identity{Code: r.Code, Year: shared.AcademicYear(r.Year)},
		Type:                   learningunit.Type(r.Type),
		Titles:                 learningunit.Titles{Fr: r.TitleFr, En: r.TitleEn},
		Credits:                r.Credits,
		LecturingPart:          r.Lecturing.toDomain(),
		PracticalPart:          r.Practical.toDomain(),
		DerogationQuadrimester: learningunit.Quadrimester(r.DerogationQuadrimester),
		DerogationSession:      learningunit.Session(r.DerogationSession),
	}

	if r.ExternalAcronym != nil {
		lu.External = &learningunit.ExternalDetails{
			ExternalAcronym: *r.ExternalAcronym,
			ExternalCredits: shared.OrZero(r.ExternalCredits),
			Mobility:        r.Mobility != nil && *r.Mobility,
		}
	}

	return lu
}

func learningUnitRowFrom(lu *learningunit.LearningUnit) learningUnitRow {
	row := learningUnitRow{
		Code:                   lu.Identity.Code,
		Year:                   lu.Identity.Year.Int(),
		Type:                   string(lu.Type),
		TitleFr:                lu.Titles.Fr,
		TitleEn:                lu.Titles.En,
		Credits:                lu.Credits,
		DerogationQuadrimester: string(lu.DerogationQuadrimester),
		DerogationSession:      string(lu.DerogationSession),
		Lecturing:              partColumnsFrom(lu.LecturingPart),
		Practical:              partColumnsFrom(lu.PracticalPart),
	}

	if ext := lu.External; ext != nil {
		acronym, mobility := ext.ExternalAcronym, ext.Mobility
		row.ExternalAcronym = &acronym
		row.ExternalCredits = decimal.NewNullDecimal(ext.ExternalCredits)
		row.Mobility = &mobility
	}

	return row
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// Get returns the learning unit with its partims.
func (r *LearningUnitRepository) Get(ctx context.Context, id learningunit.Identity) (*learningunit.LearningUnit, error) {
	q := r.conn.querier(ctx)

	var row learningUnitRow
	query := `SELECT ` + learningUnitColumns + ` FROM learning_units WHERE code = $1 AND year = $2`
	if err := q.QueryRow(ctx, query, id.Code, id.Year.Int()).Scan(row.targets()...); err != nil {
		if IsNoRows(err) {
			return nil, learningunit.ErrLearningUnitNotFound
		}
		return nil, fmt.Errorf("failed to get learning unit %s: %w", id, err)
	}

	lu := row.toDomain()

	partims, err := r.partims(ctx, q, id)
	if err != nil {
		return nil, err
	}
	lu.Partims = partims

	return lu, nil
}

func (r *LearningUnitRepository) partims(ctx context.Context, q Querier, id learningunit.Identity) ([]learningunit.Partim, error) {
	rows, err := q.Query(ctx, `
		SELECT subdivision, credits
		FROM learning_unit_partims
		WHERE code = $1 AND year = $2
		ORDER BY subdivision
	`, id.Code, id.Year.Int())
	if err != nil {
		return nil, fmt.Errorf("failed to query partims of %s: %w", id, err)
	}

	partims, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (learningunit.Partim, error) {
		var p learningunit.Partim
		err := row.Scan(&p.Subdivision, &p.Credits)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan partims of %s: %w", id, err)
	}
	if len(partims) == 0 {
		return nil, nil
	}
	return partims, nil
}

// HasProposalThisYearOrInPast checks proposals on the code up to the unit's year.
func (r *LearningUnitRepository) HasProposalThisYearOrInPast(ctx context.Context, lu *learningunit.LearningUnit) (bool, error) {
	var exists bool
	err := r.conn.querier(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM learning_unit_proposals WHERE code = $1 AND year <= $2)
	`, lu.Code(), lu.Year().Int()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check proposals of %s: %w", lu.Identity, err)
	}
	return exists, nil
}

// HasEnrollments checks whether any student is enrolled in the unit.
func (r *LearningUnitRepository) HasEnrollments(ctx context.Context, lu *learningunit.LearningUnit) (bool, error) {
	var exists bool
	err := r.conn.querier(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM learning_unit_enrollments WHERE code = $1 AND year = $2)
	`, lu.Code(), lu.Year().Int()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollments of %s: %w", lu.Identity, err)
	}
	return exists, nil
}

// GetAllIdentities returns every identity ordered by code and year.
func (r *LearningUnitRepository) GetAllIdentities(ctx context.Context) ([]learningunit.Identity, error) {
	rows, err := r.conn.querier(ctx).Query(ctx, `SELECT code, year FROM learning_units ORDER BY code, year`)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning units: %w", err)
	}

	ids, err := pgx.CollectRows(rows, scanLearningUnitIdentity)
	if err != nil {
		return nil, fmt.Errorf("failed to scan learning unit identities: %w", err)
	}
	return ids, nil
}

func scanLearningUnitIdentity(row pgx.CollectableRow) (learningunit.Identity, error) {
	var code string
	var year int
	if err := row.Scan(&code, &year); err != nil {
		return learningunit.Identity{}, err
	}
	return learningunit.Identity{Code: code, Year: shared.AcademicYear(year)}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// Save upserts the unit row and replaces its partims in one transaction.
func (r *LearningUnitRepository) Save(ctx context.Context, lu *learningunit.LearningUnit) error {
	row := learningUnitRowFrom(lu)

	return r.conn.withinTx(ctx, func(q Querier) error {
		query := `
			INSERT INTO learning_units (` + learningUnitColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
			ON CONFLICT (code, year) DO UPDATE SET
				type = EXCLUDED.type,
				title_fr = EXCLUDED.title_fr,
				title_en = EXCLUDED.title_en,
				credits = EXCLUDED.credits,
				derogation_quadrimester = EXCLUDED.derogation_quadrimester,
				derogation_session = EXCLUDED.derogation_session,
				lecturing_acronym = EXCLUDED.lecturing_acronym,
				lecturing_volume_q1 = EXCLUDED.lecturing_volume_q1,
				lecturing_volume_q2 = EXCLUDED.lecturing_volume_q2,
				lecturing_volume_annual = EXCLUDED.lecturing_volume_annual,
				lecturing_planned_classes = EXCLUDED.lecturing_planned_classes,
				lecturing_repartition_main = EXCLUDED.lecturing_repartition_main,
				lecturing_repartition_additional_1 = EXCLUDED.lecturing_repartition_additional_1,
				lecturing_repartition_additional_2 = EXCLUDED.lecturing_repartition_additional_2,
				practical_acronym = EXCLUDED.practical_acronym,
				practical_volume_q1 = EXCLUDED.practical_volume_q1,
				practical_volume_q2 = EXCLUDED.practical_volume_q2,
				practical_volume_annual = EXCLUDED.practical_volume_annual,
				practical_planned_classes = EXCLUDED.practical_planned_classes,
				practical_repartition_main = EXCLUDED.practical_repartition_main,
				practical_repartition_additional_1 = EXCLUDED.practical_repartition_additional_1,
				practical_repartition_additional_2 = EXCLUDED.practical_repartition_additional_2,
				external_acronym = EXCLUDED.external_acronym,
				external_credits = EXCLUDED.external_credits,
				mobility = EXCLUDED.mobility,
				updated_at = NOW()
		`
		if _, err := q.Exec(ctx, query, row.args()...); err != nil {
			return fmt.Errorf("failed to save learning unit %s: %w", lu.Identity, err)
		}

		if _, err := q.Exec(ctx, `DELETE FROM learning_unit_partims WHERE code = $1 AND year = $2`,
			row.Code, row.Year); err != nil {
			return fmt.Errorf("failed to clear partims of %s: %w", lu.Identity, err)
		}

		for _, p := range lu.Partims {
			if _, err := q.Exec(ctx, `
				INSERT INTO learning_unit_partims (code, year, subdivision, credits)
				VALUES ($1, $2, $3, $4)
			`, row.Code, row.Year, p.Subdivision, p.Credits); err != nil {
				return fmt.Errorf("failed to save partim %s of %s: %w", p.Subdivision, lu.Identity, err)
			}
		}

		return nil
	})
}

// AddProposal records a proposal for the code in the given year.
func (r *LearningUnitRepository) AddProposal(ctx context.Context, code string, year shared.AcademicYear) error {
	_, err := r.conn.querier(ctx).Exec(ctx,
		`INSERT INTO learning_unit_proposals (code, year) VALUES ($1, $2)`, code, year.Int())
	if err != nil {
		return fmt.Errorf("failed to add proposal on %s: %w", code, err)
	}
	return nil
}

// AddEnrollment enrolls a student registration in the unit. Enrolling twice is a no-op.
func (r *LearningUnitRepository) AddEnrollment(ctx context.Context, id learningunit.Identity, registrationID string) error {
	_, err := r.conn.querier(ctx).Exec(ctx, `
		INSERT INTO learning_unit_enrollments (code, year, student_registration_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, id.Code, id.Year.Int(), registrationID)
	if err != nil {
		return fmt.Errorf("failed to enroll %s in %s: %w", registrationID, id, err)
	}
	return nil
}
