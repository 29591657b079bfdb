package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB returns a migrated SQLite database in a temp directory.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, MigrateUp(db))
	return db
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(openTestDB(t))
	require.NoError(t, err)
	return s
}

func TestOpen_Schemes(t *testing.T) {
	_, err := Open("mysql://localhost/db")
	assert.ErrorContains(t, err, "unsupported database scheme")

	_, err = Open("://bad")
	assert.ErrorContains(t, err, "invalid database URL")

	db, err := Open("sqlite://" + filepath.Join(t.TempDir(), "a.db") + "?_busy_timeout=100")
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, "sqlite3", db.DriverName())

	var fk int
	require.NoError(t, db.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)
}

func TestDataSource(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver string
		wantDSN    string
	}{
		{"sqlite://ft.db", "sqlite3", "ft.db?_foreign_keys=on"},
		{"sqlite:///var/lib/ft.db", "sqlite3", "/var/lib/ft.db?_foreign_keys=on"},
		{"sqlite://ft.db?_busy_timeout=5000", "sqlite3", "ft.db?_busy_timeout=5000&_foreign_keys=on"},
		{"sqlite://ft.db?_foreign_keys=off", "sqlite3", "ft.db?_foreign_keys=on"},
		{"postgres://u:p@db:5432/ft?sslmode=disable", "postgres", "postgres://u:p@db:5432/ft?sslmode=disable"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, dsn, err := dataSource(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, MigrateUp(db))

	statuses, err := MigrateStatus(db)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.True(t, s.Applied, s.ID)
		assert.NotNil(t, s.AppliedAt, s.ID)
		assert.Len(t, s.Checksum, 64)
	}
	assert.Empty(t, Pending(statuses))

	for _, table := range []string{"sessions", "session_events", "api_keys"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table), table)
	}
}

func TestMigrateStatus_Pending(t *testing.T) {
	db, err := Open("sqlite://" + filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer db.Close()

	statuses, err := MigrateStatus(db)
	require.NoError(t, err)
	assert.Equal(t, len(statuses), len(Pending(statuses)))
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("UPDATE migrations SET checksum = 'tampered'")
	require.NoError(t, err)

	err = MigrateUp(db)
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestSplitStatements(t *testing.T) {
	in := "-- heading\nCREATE TABLE a (x INT);\n  -- note\nCREATE TABLE b (y INT);\n"
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, splitStatements(in))
	assert.Empty(t, splitStatements("-- only a comment\n"))
}

func TestQueries_UnknownName(t *testing.T) {
	q, err := LoadQueries(openTestDB(t))
	require.NoError(t, err)

	_, err = q.ExecContext(context.Background(), "no-such-query")
	assert.ErrorContains(t, err, "query not found")
}
