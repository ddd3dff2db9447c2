package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EFFECTIVE CLASS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EffectiveClassRepository implements effectiveclass.Repository for PostgreSQL.
type EffectiveClassRepository struct {
	conn *Connection
}

var _ effectiveclass.Repository = (*EffectiveClassRepository)(nil)

// NewEffectiveClassRepository creates a new EffectiveClassRepository.
func NewEffectiveClassRepository(conn *Connection) *EffectiveClassRepository {
	return &EffectiveClassRepository{conn: conn}
}

const effectiveClassColumns = `
	code, year, class_code, class_type, title_fr, title_en,
	teaching_place_uuid, teaching_place_name,
	derogation_quadrimester, derogation_session, volume_q1, volume_q2`

// effectiveClassRow mirrors one effective_classes row.
type effectiveClassRow struct {
	Code                   string
	Year                   int
	ClassCode              string
	ClassType              string
	TitleFr                string
	TitleEn                string
	TeachingPlaceUUID      string
	TeachingPlaceName      string
	DerogationQuadrimester string
	DerogationSession      string
	VolumeQ1               decimal.NullDecimal
	VolumeQ2               decimal.NullDecimal
}

func (r *effectiveClassRow) targets() []any {
	return []any{
		&r.Code, &r.Year, &r.ClassCode, &r.ClassType, &r.TitleFr, &r.TitleEn,
		&r.TeachingPlaceUUID, &r.TeachingPlaceName,
		&r.DerogationQuadrimester, &r.DerogationSession, &r.VolumeQ1, &r.VolumeQ2,
	}
}

func (r effectiveClassRow) args() []any {
	return []any{
		r.Code, r.Year, r.ClassCode, r.ClassType, r.TitleFr, r.TitleEn,
		r.TeachingPlaceUUID, r.TeachingPlaceName,
		r.DerogationQuadrimester, r.DerogationSession, r.VolumeQ1, r.VolumeQ2,
	}
}

func (r effectiveClassRow) toDomain() *effectiveclass.EffectiveClass {
	return &effectiveclass.EffectiveClass{
		Identity: effectiveclass.Identity{
			ClassCode:    strings.TrimSpace(r.ClassCode),
			LearningUnit: learningunit.Identity{Code: r.Code, Year: shared.AcademicYear(r.Year)},
		},
		Type:                   effectiveclass.ClassType(r.ClassType),
		Titles:                 effectiveclass.Titles{Fr: r.TitleFr, En: r.TitleEn},
		TeachingPlace:          effectiveclass.TeachingPlace{UUID: r.TeachingPlaceUUID, Name: r.TeachingPlaceName},
		DerogationQuadrimester: learningunit.Quadrimester(r.DerogationQuadrimester),
		DerogationSession:      learningunit.Session(r.DerogationSession),
		Volumes: effectiveclass.ClassVolumes{
			VolumeFirstQuadrimester:  r.VolumeQ1,
			VolumeSecondQuadrimester: r.VolumeQ2,
		},
	}
}

func effectiveClassRowFrom(c *effectiveclass.EffectiveClass) effectiveClassRow {
	return effectiveClassRow{
		Code:                   c.Identity.LearningUnit.Code,
		Year:                   c.Identity.LearningUnit.Year.Int(),
		ClassCode:              c.Identity.ClassCode,
		ClassType:              string(c.Type),
		TitleFr:                c.Titles.Fr,
		TitleEn:                c.Titles.En,
		TeachingPlaceUUID:      c.TeachingPlace.UUID,
		TeachingPlaceName:      c.TeachingPlace.Name,
		DerogationQuadrimester: string(c.DerogationQuadrimester),
		DerogationSession:      string(c.DerogationSession),
		VolumeQ1:               c.Volumes.VolumeFirstQuadrimester,
		VolumeQ2:               c.Volumes.VolumeSecondQuadrimester,
	}
}

// searchClause turns a filter into a WHERE clause and its arguments.
// Identity lists are matched with unnest so one query covers any number of classes.
func searchClause(filter effectiveclass.SearchFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.LearningUnit != nil {
		args = append(args, filter.LearningUnit.Code, filter.LearningUnit.Year.Int())
		conds = append(conds, fmt.Sprintf("(code = $%d AND year = $%d)", len(args)-1, len(args)))
	}

	if len(filter.Identities) > 0 {
		codes := make([]string, len(filter.Identities))
		years := make([]int, len(filter.Identities))
		classCodes := make([]string, len(filter.Identities))
		for i, id := range filter.Identities {
			codes[i] = id.LearningUnit.Code
			years[i] = id.LearningUnit.Year.Int()
			classCodes[i] = id.ClassCode
		}
		args = append(args, codes, years, classCodes)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(code, year, class_code) IN (SELECT * FROM unnest($%d::text[], $%d::int[], $%d::text[]))",
			n-2, n-1, n,
		))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// Get returns one class.
func (r *EffectiveClassRepository) Get(ctx context.Context, id effectiveclass.Identity) (*effectiveclass.EffectiveClass, error) {
	var row effectiveClassRow
	query := `SELECT ` + effectiveClassColumns + ` FROM effective_classes WHERE code = $1 AND year = $2 AND class_code = $3`

	err := r.conn.querier(ctx).QueryRow(ctx, query,
		id.LearningUnit.Code, id.LearningUnit.Year.Int(), id.ClassCode,
	).Scan(row.targets()...)
	if err != nil {
		if IsNoRows(err) {
			return nil, effectiveclass.ErrEffectiveClassNotFound
		}
		return nil, fmt.Errorf("failed to get effective class %s: %w", id, err)
	}

	return row.toDomain(), nil
}

// Search returns the classes matching filter.
func (r *EffectiveClassRepository) Search(ctx context.Context, filter effectiveclass.SearchFilter) ([]*effectiveclass.EffectiveClass, error) {
	where, args := searchClause(filter)
	query := `SELECT ` + effectiveClassColumns + ` FROM effective_classes` + where + ` ORDER BY code, year, class_code`

	rows, err := r.conn.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search effective classes: %w", err)
	}

	classes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*effectiveclass.EffectiveClass, error) {
		var rec effectiveClassRow
		if err := row.Scan(rec.targets()...); err != nil {
			return nil, err
		}
		return rec.toDomain(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan effective classes: %w", err)
	}
	return classes, nil
}

// GetAllIdentities returns every class identity.
func (r *EffectiveClassRepository) GetAllIdentities(ctx context.Context) ([]effectiveclass.Identity, error) {
	rows, err := r.conn.querier(ctx).Query(ctx, `SELECT code, year, class_code FROM effective_classes ORDER BY code, year, class_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list effective classes: %w", err)
	}

	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (effectiveclass.Identity, error) {
		var code, classCode string
		var year int
		if err := row.Scan(&code, &year, &classCode); err != nil {
			return effectiveclass.Identity{}, err
		}
		return effectiveclass.Identity{
			ClassCode:    strings.TrimSpace(classCode),
			LearningUnit: learningunit.Identity{Code: code, Year: shared.AcademicYear(year)},
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan effective class identities: %w", err)
	}
	return ids, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// Save upserts the class.
func (r *EffectiveClassRepository) Save(ctx context.Context, class *effectiveclass.EffectiveClass) error {
	row := effectiveClassRowFrom(class)
	query := `
		INSERT INTO effective_classes (` + effectiveClassColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (code, year, class_code) DO UPDATE SET
			class_type = EXCLUDED.class_type,
			title_fr = EXCLUDED.title_fr,
			title_en = EXCLUDED.title_en,
			teaching_place_uuid = EXCLUDED.teaching_place_uuid,
			teaching_place_name = EXCLUDED.teaching_place_name,
			derogation_quadrimester = EXCLUDED.derogation_quadrimester,
			derogation_session = EXCLUDED.derogation_session,
			volume_q1 = EXCLUDED.volume_q1,
			volume_q2 = EXCLUDED.volume_q2,
			updated_at = NOW()
	`

	if _, err := r.conn.querier(ctx).Exec(ctx, query, row.args()...); err != nil {
		if IsForeignKeyViolation(err) {
			return learningunit.ErrLearningUnitNotFound
		}
		return fmt.Errorf("failed to save effective class %s: %w", class.Identity, err)
	}
	return nil
}

// Delete removes the class. Deleting an unknown class is a no-op.
func (r *EffectiveClassRepository) Delete(ctx context.Context, id effectiveclass.Identity) error {
	_, err := r.conn.querier(ctx).Exec(ctx,
		`DELETE FROM effective_classes WHERE code = $1 AND year = $2 AND class_code = $3`,
		id.LearningUnit.Code, id.LearningUnit.Year.Int(), id.ClassCode,
	)
	if err != nil {
		return fmt.Errorf("failed to delete effective class %s: %w", id, err)
	}
	return nil
}
