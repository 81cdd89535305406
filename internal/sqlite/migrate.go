package sqlite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrate applies the pending migrations embedded from migrations/ on the read-write connection.
//
// The migrator is not closed because closing it would close the read-write pool it borrowed.
func (db *Database) migrate(ctx context.Context) error {
	start := time.Now()

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close migration source", slog.Any("error", closeErr))
		}
	}()

	driver, err := migratesqlite3.WithInstance(db.ReadWrite, &migratesqlite3.Config{}) //nolint:exhaustruct // defaults.
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database",
		slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty), slog.Duration("duration", time.Since(start)))
	return nil
}

// SchemaVersion returns the applied migration version.
func (db *Database) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.ReadOnly.QueryRowContext(ctx, "SELECT version FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}
