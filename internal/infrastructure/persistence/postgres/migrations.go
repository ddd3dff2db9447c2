package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: LEARNING UNITS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learning unit tables
-- Version: 001

CREATE TABLE IF NOT EXISTS learning_units (
    code VARCHAR(15) NOT NULL,
    year INTEGER NOT NULL,
    type VARCHAR(30) NOT NULL,
    title_fr TEXT NOT NULL DEFAULT '',
    title_en TEXT NOT NULL DEFAULT '',
    credits NUMERIC(5,2) NOT NULL DEFAULT 0,
    derogation_quadrimester VARCHAR(10) NOT NULL DEFAULT '',
    derogation_session VARCHAR(5) NOT NULL DEFAULT '',

    -- Lecturing part (PM)
    lecturing_acronym VARCHAR(5) NOT NULL DEFAULT 'PM',
    lecturing_volume_q1 NUMERIC(6,2),
    lecturing_volume_q2 NUMERIC(6,2),
    lecturing_volume_annual NUMERIC(6,2),
    lecturing_planned_classes INTEGER NOT NULL DEFAULT 0,
    lecturing_repartition_main NUMERIC(6,2),
    lecturing_repartition_additional_1 NUMERIC(6,2),
    lecturing_repartition_additional_2 NUMERIC(6,2),

    -- Practical part (PP)
    practical_acronym VARCHAR(5) NOT NULL DEFAULT 'PP',
    practical_volume_q1 NUMERIC(6,2),
    practical_volume_q2 NUMERIC(6,2),
    practical_volume_annual NUMERIC(6,2),
    practical_planned_classes INTEGER NOT NULL DEFAULT 0,
    practical_repartition_main NUMERIC(6,2),
    practical_repartition_additional_1 NUMERIC(6,2),
    practical_repartition_additional_2 NUMERIC(6,2),

    -- External learning units only
    external_acronym VARCHAR(30),
    external_credits NUMERIC(5,2),
    mobility BOOLEAN,

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (code, year),
    CONSTRAINT valid_year CHECK (year BETWEEN 1900 AND 2999)
);

CREATE INDEX IF NOT EXISTS idx_learning_units_year ON learning_units(year);

CREATE TABLE IF NOT EXISTS learning_unit_partims (
    code VARCHAR(15) NOT NULL,
    year INTEGER NOT NULL,
    subdivision VARCHAR(3) NOT NULL,
    credits NUMERIC(5,2) NOT NULL DEFAULT 0,

    PRIMARY KEY (code, year, subdivision),
    FOREIGN KEY (code, year) REFERENCES learning_units(code, year) ON DELETE CASCADE
);

-- Proposals are tracked by code so that a proposal on an earlier year still counts.
CREATE TABLE IF NOT EXISTS learning_unit_proposals (
    id SERIAL PRIMARY KEY,
    code VARCHAR(15) NOT NULL,
    year INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_learning_unit_proposals_code ON learning_unit_proposals(code, year);

CREATE TABLE IF NOT EXISTS learning_unit_enrollments (
    code VARCHAR(15) NOT NULL,
    year INTEGER NOT NULL,
    student_registration_id VARCHAR(20) NOT NULL,
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (code, year, student_registration_id),
    FOREIGN KEY (code, year) REFERENCES learning_units(code, year) ON DELETE CASCADE
);
`

const migration001Down = `
DROP TABLE IF EXISTS learning_unit_enrollments;
DROP TABLE IF EXISTS learning_unit_proposals;
DROP TABLE IF EXISTS learning_unit_partims;
DROP TABLE IF EXISTS learning_units;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: EFFECTIVE CLASSES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create effective classes table
-- Version: 002

CREATE TABLE IF NOT EXISTS effective_classes (
    code VARCHAR(15) NOT NULL,
    year INTEGER NOT NULL,
    class_code CHAR(1) NOT NULL,
    class_type VARCHAR(10) NOT NULL,
    title_fr TEXT NOT NULL DEFAULT '',
    title_en TEXT NOT NULL DEFAULT '',
    teaching_place_uuid VARCHAR(36) NOT NULL DEFAULT '',
    teaching_place_name TEXT NOT NULL DEFAULT '',
    derogation_quadrimester VARCHAR(10) NOT NULL DEFAULT '',
    derogation_session VARCHAR(5) NOT NULL DEFAULT '',
    volume_q1 NUMERIC(6,2),
    volume_q2 NUMERIC(6,2),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (code, year, class_code),
    FOREIGN KEY (code, year) REFERENCES learning_units(code, year) ON DELETE CASCADE,
    CONSTRAINT valid_class_type CHECK (class_type IN ('lecturing', 'practical')),
    CONSTRAINT valid_volume_q1 CHECK (volume_q1 IS NULL OR volume_q1 >= 0),
    CONSTRAINT valid_volume_q2 CHECK (volume_q2 IS NULL OR volume_q2 >= 0)
);
`

const migration002Down = `
DROP TABLE IF EXISTS effective_classes;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: TUTORS AND REPARTITIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create tutor, attribution and class volume repartition tables
-- Version: 003

CREATE TABLE IF NOT EXISTS tutors (
    personal_id_number VARCHAR(20) PRIMARY KEY,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT ''
);

-- Attributions are owned by the attribution service; this core only reads them.
CREATE TABLE IF NOT EXISTS attributions (
    uuid UUID PRIMARY KEY,
    personal_id_number VARCHAR(20) NOT NULL REFERENCES tutors(personal_id_number),
    function VARCHAR(30) NOT NULL DEFAULT '',
    code VARCHAR(15) NOT NULL,
    year INTEGER NOT NULL,
    attributed_volume NUMERIC(6,2) NOT NULL DEFAULT 0,

    FOREIGN KEY (code, year) REFERENCES learning_units(code, year) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_attributions_learning_unit ON attributions(code, year);
CREATE INDEX IF NOT EXISTS idx_attributions_tutor_year ON attributions(personal_id_number, year);

CREATE TABLE IF NOT EXISTS class_volume_repartitions (
    personal_id_number VARCHAR(20) NOT NULL REFERENCES tutors(personal_id_number) ON DELETE CASCADE,
    attribution_uuid UUID NOT NULL REFERENCES attributions(uuid) ON DELETE CASCADE,
    code VARCHAR(15) NOT NULL,
    year INTEGER NOT NULL,
    class_code CHAR(1) NOT NULL,
    distributed_volume NUMERIC(6,2) NOT NULL,

    PRIMARY KEY (code, year, class_code, attribution_uuid),
    -- A class with distributed volume cannot be deleted underneath its tutors.
    FOREIGN KEY (code, year, class_code) REFERENCES effective_classes(code, year, class_code) ON DELETE RESTRICT,
    CONSTRAINT valid_distributed_volume CHECK (distributed_volume >= 0)
);

CREATE INDEX IF NOT EXISTS idx_repartitions_tutor ON class_volume_repartitions(personal_id_number);
`

const migration003Down = `
DROP TABLE IF EXISTS class_volume_repartitions;
DROP TABLE IF EXISTS attributions;
DROP TABLE IF EXISTS tutors;
`

// GetMigrations returns all migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_learning_units", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_effective_classes", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_tutors_and_repartitions", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies the schema migrations and records them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the built-in migrations.
func NewMigrator(conn *Connection) *Migrator {
	return NewMigratorWithMigrations(conn, GetMigrations())
}

// NewMigratorWithMigrations creates a migrator with custom migrations, sorted by version.
func NewMigratorWithMigrations(conn *Connection, migrations []Migration) *Migrator {
	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	return &Migrator{
		conn:       conn,
		migrations: sorted,
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the applied versions with their timestamps.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
// It returns the versions it applied.
func (m *Migrator) Migrate(ctx context.Context) ([]int, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	var done []int
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		if mig.UpSQL == "" {
			return done, fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			insert := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insert, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return done, fmt.Errorf("%w: version %d: %w", ErrMigrationFailed, mig.Version, err)
		}
		done = append(done, mig.Version)
	}

	return done, nil
}

// Rollback rolls back the last applied migration. It returns 0 when nothing was applied.
func (m *Migrator) Rollback(ctx context.Context) (int, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	last := 0
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		return 0, nil
	}

	var migration *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last {
			migration = &m.migrations[i]
			break
		}
	}
	if migration == nil || migration.DownSQL == "" {
		return 0, fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, last)
	}

	err = m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", last, err)
		}
		_, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName), last)
		return err
	})
	if err != nil {
		return 0, err
	}
	return last, nil
}

// Status returns every known migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	return mergeStatus(m.migrations, applied), nil
}

func mergeStatus(migrations []Migration, applied map[int]time.Time) []Migration {
	result := make([]Migration, len(migrations))
	copy(result, migrations)

	for i := range result {
		if appliedAt, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = appliedAt
		}
	}
	return result
}
