package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TUTOR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TutorRepository implements attribution.TutorRepository for PostgreSQL.
// A tutor row holds the names; its repartitions live in class_volume_repartitions.
type TutorRepository struct {
	conn *Connection
}

var _ attribution.TutorRepository = (*TutorRepository)(nil)

// NewTutorRepository creates a new TutorRepository.
func NewTutorRepository(conn *Connection) *TutorRepository {
	return &TutorRepository{conn: conn}
}

// repartitionKey identifies a repartition row.
type repartitionKey struct {
	Code            string
	Year            int
	ClassCode       string
	AttributionUUID string
}

func keyOf(r attribution.ClassVolumeRepartition) repartitionKey {
	return repartitionKey{
		Code:            r.EffectiveClass.LearningUnit.Code,
		Year:            r.EffectiveClass.LearningUnit.Year.Int(),
		ClassCode:       strings.ToUpper(r.EffectiveClass.ClassCode),
		AttributionUUID: strings.ToLower(r.Attribution.UUID),
	}
}

// repartitionDiff is the set of statements needed to bring stored rows in
// line with the aggregate.
type repartitionDiff struct {
	Inserts []attribution.ClassVolumeRepartition
	Updates []attribution.ClassVolumeRepartition
	Deletes []repartitionKey
}

// IsEmpty reports whether nothing has to be written.
func (d repartitionDiff) IsEmpty() bool {
	return len(d.Inserts) == 0 && len(d.Updates) == 0 && len(d.Deletes) == 0
}

// diffRepartitions compares stored volumes with the aggregate's repartitions.
// Unchanged rows are left alone; deletes keep the stored order.
func diffRepartitions(stored []attribution.ClassVolumeRepartition, current []attribution.ClassVolumeRepartition) repartitionDiff {
	var diff repartitionDiff

	storedByKey := make(map[repartitionKey]decimal.Decimal, len(stored))
	for _, r := range stored {
		storedByKey[keyOf(r)] = r.DistributedVolume
	}

	seen := make(map[repartitionKey]bool, len(current))
	for _, r := range current {
		k := keyOf(r)
		seen[k] = true

		volume, ok := storedByKey[k]
		switch {
		case !ok:
			diff.Inserts = append(diff.Inserts, r)
		case !volume.Equal(r.DistributedVolume):
			diff.Updates = append(diff.Updates, r)
		}
	}

	for _, r := range stored {
		if k := keyOf(r); !seen[k] {
			diff.Deletes = append(diff.Deletes, k)
		}
	}

	return diff
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// Get returns the tutor with its repartitions.
func (r *TutorRepository) Get(ctx context.Context, id attribution.TutorIdentity) (*attribution.Tutor, error) {
	return r.get(ctx, r.conn.querier(ctx), id)
}

func (r *TutorRepository) get(ctx context.Context, q Querier, id attribution.TutorIdentity) (*attribution.Tutor, error) {
	var firstName, lastName string
	err := q.QueryRow(ctx,
		`SELECT first_name, last_name FROM tutors WHERE personal_id_number = $1`,
		id.PersonalIDNumber,
	).Scan(&firstName, &lastName)
	if err != nil {
		if IsNoRows(err) {
			return nil, attribution.ErrTutorNotFound
		}
		return nil, fmt.Errorf("failed to get tutor %s: %w", id.PersonalIDNumber, err)
	}

	reps, err := r.repartitions(ctx, q, id)
	if err != nil {
		return nil, err
	}

	return attribution.NewTutor(id, firstName, lastName, reps...), nil
}

func (r *TutorRepository) repartitions(ctx context.Context, q Querier, id attribution.TutorIdentity) ([]attribution.ClassVolumeRepartition, error) {
	rows, err := q.Query(ctx, `
		SELECT code, year, class_code, attribution_uuid::text, distributed_volume
		FROM class_volume_repartitions
		WHERE personal_id_number = $1
		ORDER BY code, year, class_code, attribution_uuid
	`, id.PersonalIDNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query repartitions of %s: %w", id.PersonalIDNumber, err)
	}

	reps, err := pgx.CollectRows(rows, scanRepartition)
	if err != nil {
		return nil, fmt.Errorf("failed to scan repartitions of %s: %w", id.PersonalIDNumber, err)
	}
	return reps, nil
}

func scanRepartition(row pgx.CollectableRow) (attribution.ClassVolumeRepartition, error) {
	var code, classCode, uuid string
	var year int
	var volume decimal.Decimal
	if err := row.Scan(&code, &year, &classCode, &uuid, &volume); err != nil {
		return attribution.ClassVolumeRepartition{}, err
	}
	return attribution.ClassVolumeRepartition{
		EffectiveClass: effectiveclass.Identity{
			ClassCode:    strings.TrimSpace(classCode),
			LearningUnit: learningunit.Identity{Code: code, Year: shared.AcademicYear(year)},
		},
		Attribution:       attribution.AttributionIdentity{UUID: uuid},
		DistributedVolume: volume,
	}, nil
}

// Search returns the tutors matching filter, ordered by personal id number.
func (r *TutorRepository) Search(ctx context.Context, filter attribution.TutorFilter) ([]*attribution.Tutor, error) {
	q := r.conn.querier(ctx)
	where, args := tutorSearchClause(filter)

	rows, err := q.Query(ctx, `SELECT t.personal_id_number FROM tutors t`+where+` ORDER BY t.personal_id_number`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search tutors: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tutor ids: %w", err)
	}

	tutors := make([]*attribution.Tutor, 0, len(ids))
	for _, id := range ids {
		t, err := r.get(ctx, q, attribution.TutorIdentity{PersonalIDNumber: id})
		if err != nil {
			return nil, err
		}
		tutors = append(tutors, t)
	}
	return tutors, nil
}

func tutorSearchClause(filter attribution.TutorFilter) (string, []any) {
	var conds []string
	var args []any

	if len(filter.Identities) > 0 {
		ids := make([]string, len(filter.Identities))
		for i, id := range filter.Identities {
			ids[i] = id.PersonalIDNumber
		}
		args = append(args, ids)
		conds = append(conds, fmt.Sprintf("t.personal_id_number = ANY($%d)", len(args)))
	}

	if c := filter.EffectiveClass; c != nil {
		args = append(args, c.LearningUnit.Code, c.LearningUnit.Year.Int(), c.ClassCode)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM class_volume_repartitions r WHERE r.personal_id_number = t.personal_id_number AND r.code = $%d AND r.year = $%d AND r.class_code = $%d)",
			n-2, n-1, n,
		))
	}

	if lu := filter.LearningUnit; lu != nil {
		args = append(args, lu.Code, lu.Year.Int())
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM class_volume_repartitions r WHERE r.personal_id_number = t.personal_id_number AND r.code = $%d AND r.year = $%d)",
			n-1, n,
		))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// Save upserts the tutor row and applies the repartition diff in one transaction.
func (r *TutorRepository) Save(ctx context.Context, tutor *attribution.Tutor) error {
	id := tutor.Identity.PersonalIDNumber

	return r.conn.withinTx(ctx, func(q Querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO tutors (personal_id_number, first_name, last_name)
			VALUES ($1, $2, $3)
			ON CONFLICT (personal_id_number) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name
		`, id, tutor.FirstName, tutor.LastName)
		if err != nil {
			return fmt.Errorf("failed to save tutor %s: %w", id, err)
		}

		stored, err := r.repartitions(ctx, q, tutor.Identity)
		if err != nil {
			return err
		}

		diff := diffRepartitions(stored, tutor.Repartitions())

		for _, k := range diff.Deletes {
			if _, err := q.Exec(ctx, `
				DELETE FROM class_volume_repartitions
				WHERE personal_id_number = $1 AND code = $2 AND year = $3 AND class_code = $4 AND attribution_uuid = $5
			`, id, k.Code, k.Year, k.ClassCode, k.AttributionUUID); err != nil {
				return fmt.Errorf("failed to delete repartition of %s: %w", id, err)
			}
		}

		for _, rep := range diff.Updates {
			k := keyOf(rep)
			if _, err := q.Exec(ctx, `
				UPDATE class_volume_repartitions SET distributed_volume = $6
				WHERE personal_id_number = $1 AND code = $2 AND year = $3 AND class_code = $4 AND attribution_uuid = $5
			`, id, k.Code, k.Year, k.ClassCode, k.AttributionUUID, rep.DistributedVolume); err != nil {
				return fmt.Errorf("failed to update repartition of %s: %w", id, err)
			}
		}

		for _, rep := range diff.Inserts {
			k := keyOf(rep)
			if _, err := q.Exec(ctx, `
				INSERT INTO class_volume_repartitions
					(personal_id_number, code, year, class_code, attribution_uuid, distributed_volume)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, id, k.Code, k.Year, k.ClassCode, k.AttributionUUID, rep.DistributedVolume); err != nil {
				if IsForeignKeyViolation(err) {
					return fmt.Errorf("repartition of %s on %s references unknown data: %w", id, rep.EffectiveClass, err)
				}
				return fmt.Errorf("failed to insert repartition of %s: %w", id, err)
			}
		}

		return nil
	})
}

// Delete removes the tutor; repartitions cascade.
func (r *TutorRepository) Delete(ctx context.Context, id attribution.TutorIdentity) error {
	_, err := r.conn.querier(ctx).Exec(ctx, `DELETE FROM tutors WHERE personal_id_number = $1`, id.PersonalIDNumber)
	if err != nil {
		return fmt.Errorf("failed to delete tutor %s: %w", id.PersonalIDNumber, err)
	}
	return nil
}
