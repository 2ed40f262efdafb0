package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseName is the SQLite registry file inside a store directory.
const DatabaseName = "status.db"

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps the registry in a SQLite database.
// Each Save also appends a row to runs, recording when the registry was
// replaced and how many slides it held. The status command reports it.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path, applying pragmas and
// the schema. Safe to call repeatedly on the same file.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads every slide row.
func (s *SQLiteStore) Load(ctx context.Context) (Registry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, hash, number FROM slides ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	defer rows.Close()

	reg := Registry{}
	for rows.Next() {
		var id string
		var e Entry
		if err := rows.Scan(&id, &e.Hash, &e.Number); err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		reg[id] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	return reg, nil
}

// Save replaces all slide rows with reg in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, reg Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM slides`); err != nil {
		return fmt.Errorf("save registry: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO slides (id, hash, number) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	defer stmt.Close()

	for _, id := range reg.IDs() {
		e := reg[id]
		if _, err := stmt.ExecContext(ctx, id, e.Hash, e.Number); err != nil {
			return fmt.Errorf("save registry: insert %q: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (slides) VALUES (?)`, len(reg)); err != nil {
		return fmt.Errorf("save registry: record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save registry: commit: %w", err)
	}
	return nil
}

// Runs returns how many times the registry has been saved.
// It implements History.
func (s *SQLiteStore) Runs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLiteStore) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
