package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a database from version-1 to version.
type migration struct {
	version int
	apply   func(*sql.DB) error
}

// migrations are applied in order to databases whose user_version is
// below the entry's version. Fresh databases already carry every object
// from schema.sql, so each step must tolerate that.
var migrations = []migration{
	{version: 1, apply: addDetailMessageIndex},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = migrations[len(migrations)-1].version

// connection settings applied to every opened database.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// Store is the SQLite-backed audit log of conversions.
type Store struct {
	db    *sql.DB
	clock *Clock
}

// Open opens the audit database at path, creating and migrating it as
// needed. Opening an existing database again is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s, err := setup(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return s, nil
}

func setup(db *sql.DB) (*Store, error) {
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// One connection: SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		return nil, err
	}
	if err := applySchema(db); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	last, err := s.LastSeq(context.Background())
	if err != nil {
		return nil, err
	}
	s.clock = NewClockAt(last)
	return s, nil
}

// Close releases the database. A zero Store closes without error.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// LastSeq reports the highest recorded seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM conversions`)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}

func applyPragmas(db *sql.DB) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *sql.DB) error {
	var have int
	if err := db.QueryRow("PRAGMA user_version").Scan(&have); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for _, m := range migrations {
		if have >= m.version {
			continue
		}
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		have = m.version
	}

	// PRAGMA does not accept bound parameters.
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", have)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return nil
}

func addDetailMessageIndex(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_conversion_details_message ON conversion_details(message)`)
	return err
}
