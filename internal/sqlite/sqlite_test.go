package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/myrjola/workoutcal/internal/sqlite"
	"github.com/myrjola/workoutcal/internal/testhelpers"
)

func TestNewDatabase_appliesMigrations(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db, err := sqlite.NewDatabase(ctx, ":memory:", testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 2 {
		t.Errorf("SchemaVersion() = %d, want 2", version)
	}

	var exercises, groups int
	if err = db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises").Scan(&exercises); err != nil {
		t.Fatalf("count exercises: %v", err)
	}
	if err = db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM muscle_groups").Scan(&groups); err != nil {
		t.Fatalf("count muscle groups: %v", err)
	}
	if exercises != 31 || groups != 7 {
		t.Errorf("seeded %d exercises and %d muscle groups, want 31 and 7", exercises, groups)
	}
}

func TestNewDatabase_reopenIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "workoutcal.sqlite3")
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))

	db, err := sqlite.NewDatabase(ctx, path, logger)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	if err = db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err = sqlite.NewDatabase(ctx, path, logger)
	if err != nil {
		t.Fatalf("NewDatabase() reopen error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	var exercises int
	if err = db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises").Scan(&exercises); err != nil {
		t.Fatalf("count exercises: %v", err)
	}
	if exercises != 31 {
		t.Errorf("exercises after reopen = %d, want 31", exercises)
	}
}
