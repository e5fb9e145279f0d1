// Package store persists tracked contracts, custom sensor aliases and the
// ranked top-contracts shortlist in a single sqlite file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// Store wraps the sqlite handle. The file path is passed in explicitly;
// there is no package-level database location.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (creating if necessary) the sqlite file at path and migrates
// the schema.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	// WAL keeps readers unblocked while sensors and jobs write; the busy
	// timeout covers the engine-level locking the design leans on.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return s, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the sqlite file location.
func (s *Store) Path() string {
	return s.path
}

// migrate creates the tables if they do not exist yet.
func (s *Store) migrate() error {
	// Month and year default to '' rather than NULL so the 8-tuple UNIQUE
	// constraint treats two undated rows as duplicates.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contracts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL,
			energy_type TEXT NOT NULL,
			contract_type TEXT NOT NULL,
			segment TEXT NOT NULL,
			supplier TEXT NOT NULL,
			contract_name TEXT NOT NULL,
			price_component TEXT NOT NULL,
			month TEXT NOT NULL DEFAULT '',
			year TEXT NOT NULL DEFAULT '',
			sensor_id TEXT NOT NULL DEFAULT '',
			UNIQUE(energy_type, contract_type, segment, supplier, contract_name, price_component, month, year)
		)`,
		`CREATE TABLE IF NOT EXISTS top_contracts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL,
			energy_type TEXT NOT NULL,
			contract_type TEXT NOT NULL,
			segment TEXT NOT NULL,
			supplier TEXT NOT NULL,
			contract_name TEXT NOT NULL,
			price_component TEXT NOT NULL,
			month TEXT NOT NULL DEFAULT '',
			year TEXT NOT NULL DEFAULT '',
			ranking INTEGER NOT NULL,
			UNIQUE(ranking)
		)`,
		`CREATE TABLE IF NOT EXISTS custom_sensors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL,
			original_sensor_id TEXT NOT NULL,
			custom_sensor_name TEXT NOT NULL,
			UNIQUE(custom_sensor_name)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// PurgeExcept deletes contracts and aliases that do not belong to the given
// entry id. Run once at startup to drop rows left behind by a previous
// configuration. Top contracts are not purged here; the best-contracts job
// rebuilds that table wholesale.
func (s *Store) PurgeExcept(ctx context.Context, entryID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM contracts WHERE entry_id != ?`, entryID); err != nil {
		return fmt.Errorf("purge contracts: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM custom_sensors WHERE entry_id != ?`, entryID); err != nil {
		return fmt.Errorf("purge custom sensors: %w", err)
	}

	return nil
}

// Vacuum compacts the sqlite file. Invoked by the maintenance job.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `ANALYZE`); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a sqlite uniqueness-constraint
// violation.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
