package db

import (
	"crypto/sha256"
	"encoding/hex"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	embeddedmigrations "github.com/solatis/filtertree/migrations"
)

/*
 * Schema migrations.
 *
 * Migrations are the .sql files embedded per driver, applied in filename
 * order. Each applied file is recorded in the migrations table with its
 * SHA-256; a recorded file whose embedded content changed, or that is no
 * longer embedded, stops MigrateUp before anything runs.
 *
 * A file is split on ";" after full-line "--" comments are removed, because
 * lib/pq rejects several statements in one Exec. Each file runs in its own
 * transaction together with its bookkeeping row.
 */

// MigrationStatus represents the state of a single migration.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

type migration struct {
	ID       string
	Checksum string
	SQL      string
}

// migrator binds a database to the migrations embedded for its driver.
type migrator struct {
	db         *sqlx.DB
	migrations []migration
}

func newMigrator(db *sqlx.DB) (*migrator, error) {
	fsys, dir, err := migrationSource(db.DriverName())
	if err != nil {
		return nil, err
	}
	if err := createMigrationsTable(db); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	migrations, err := parseMigrationFiles(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to parse migrations: %w", err)
	}
	return &migrator{db: db, migrations: migrations}, nil
}

// MigrateUp verifies the checksums of applied migrations and applies the
// pending ones in order.
func MigrateUp(db *sqlx.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	applied, err := m.applied()
	if err != nil {
		return err
	}
	if err := m.verify(applied); err != nil {
		return fmt.Errorf("migration checksum validation failed: %w", err)
	}

	for _, mig := range m.migrations {
		if _, ok := applied[mig.ID]; ok {
			continue
		}
		if err := m.apply(mig); err != nil {
			return err
		}
	}
	return nil
}

// MigrateStatus lists every embedded migration with its applied state.
func MigrateStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	m, err := newMigrator(db)
	if err != nil {
		return nil, err
	}
	applied, err := m.applied()
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		if s, ok := applied[mig.ID]; ok {
			statuses = append(statuses, s)
			continue
		}
		statuses = append(statuses, MigrationStatus{ID: mig.ID, Checksum: mig.Checksum})
	}
	return statuses, nil
}

// Pending returns the migrations from statuses that have not been applied.
func Pending(statuses []MigrationStatus) []MigrationStatus {
	var out []MigrationStatus
	for _, s := range statuses {
		if !s.Applied {
			out = append(out, s)
		}
	}
	return out
}

// applied reads the migrations table keyed by migration ID.
func (m *migrator) applied() (map[string]MigrationStatus, error) {
	rows, err := m.db.Queryx("SELECT migration_id, checksum, applied_at, execution_ms FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]MigrationStatus)
	for rows.Next() {
		var (
			s         MigrationStatus
			appliedAt any
		)
		if err := rows.Scan(&s.ID, &s.Checksum, &appliedAt, &s.ExecutionMs); err != nil {
			return nil, err
		}
		s.Applied = true
		s.AppliedAt = parseAppliedAt(appliedAt)
		out[s.ID] = s
	}
	return out, rows.Err()
}

func (m *migrator) verify(applied map[string]MigrationStatus) error {
	embedded := make(map[string]string, len(m.migrations))
	for _, mig := range m.migrations {
		embedded[mig.ID] = mig.Checksum
	}
	for id, s := range applied {
		want, ok := embedded[id]
		if !ok {
			return fmt.Errorf("migration %s exists in database but not in embedded files", id)
		}
		if s.Checksum != want {
			return fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", id, want, s.Checksum)
		}
	}
	return nil
}

func (m *migrator) apply(mig migration) error {
	start := time.Now()
	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", mig.ID, err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(mig.SQL) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply migration %s: statement failed: %w", mig.ID, err)
		}
	}

	var appliedAt any = time.Now().UTC()
	if m.db.DriverName() == "sqlite3" {
		appliedAt = appliedAt.(time.Time).Format(time.RFC3339)
	}
	record := tx.Rebind("INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)")
	if _, err := tx.Exec(record, mig.ID, mig.Checksum, appliedAt, time.Since(start).Milliseconds()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", mig.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", mig.ID, err)
	}
	return nil
}

// parseAppliedAt accepts both column encodings: SQLite stores RFC3339 text,
// PostgreSQL returns a timestamp.
func parseAppliedAt(v any) *time.Time {
	switch x := v.(type) {
	case time.Time:
		return &x
	case []byte:
		return parseAppliedAt(string(x))
	case string:
		t, err := time.Parse(time.RFC3339, x)
		if err != nil {
			return nil
		}
		return &t
	default:
		return nil
	}
}

// migrationSource selects the embedded migrations for a driver.
func migrationSource(driver string) (embed.FS, string, error) {
	switch driver {
	case "sqlite3":
		return embeddedmigrations.SqliteMigrations, "sqlite", nil
	case "postgres":
		return embeddedmigrations.PostgresMigrations, "postgres", nil
	default:
		return embed.FS{}, "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func parseMigrationFiles(fsys embed.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		content, err := fsys.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(content)
		out = append(out, migration{ID: e.Name(), Checksum: hex.EncodeToString(sum[:]), SQL: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// createMigrationsTable ensures the bookkeeping table exists before the
// first migration runs. Its columns must match 001_initial_schema.sql.
func createMigrationsTable(db *sqlx.DB) error {
	appliedAt := "TIMESTAMP WITHOUT TIME ZONE NOT NULL"
	if db.DriverName() == "sqlite3" {
		appliedAt = "TEXT NOT NULL CHECK (applied_at LIKE '____-__-__T__:__:__Z')"
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		migration_id TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at ` + appliedAt + `,
		execution_ms INTEGER NOT NULL
	)`)
	return err
}

// splitStatements drops full-line "--" comments and splits on ";".
func splitStatements(sql string) []string {
	var kept []string
	for _, line := range strings.Split(sql, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			kept = append(kept, line)
		}
	}

	var out []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
