package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] upgrades a database at user_version i to i+1.
var migrations = []string{
	schemaSQL,
}

var (
	// ErrDuplicateEvent is returned when an appended id is already stored.
	ErrDuplicateEvent = errors.New("store: duplicate event id")

	// ErrIntegrity is returned when a stored row no longer matches its hash.
	ErrIntegrity = errors.New("store: content hash mismatch")

	// ErrNotFound is returned by Get for unknown ids.
	ErrNotFound = errors.New("store: event not found")
)

// Store is the durable event log. A single connection serialises writers;
// the append-only triggers in the schema reject updates and deletes.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger at path and brings its schema up to date.
// ":memory:" opens a private in-memory ledger.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: path}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	for _, p := range pragmasFor(s.path) {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return s.migrate(ctx)
}

// Path is the location the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func pragmasFor(path string) []string {
	p := []string{
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" && !strings.Contains(path, "mode=memory") {
		p = append([]string{"PRAGMA journal_mode = WAL"}, p...)
	}
	return p
}

// migrate applies every pending step of migrations in one transaction.
func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	target := len(migrations)
	switch {
	case version > target:
		return fmt.Errorf("ledger schema version %d is newer than supported %d", version, target)
	case version == target:
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for v := version; v < target; v++ {
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			return fmt.Errorf("migrate to version %d: %w", v+1, err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}

// verifyPragma is a test hook comparing a pragma's current value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
