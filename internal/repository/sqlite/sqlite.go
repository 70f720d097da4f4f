// Package sqlite implements the repository interfaces on an embedded SQLite
// database.
//
// modernc.org/sqlite is a pure Go port of SQLite, so the binary needs no C
// toolchain. The database is a single file (or ":memory:" in tests).
//
// Multi-row transitions (approve, reject, rate) run inside one *sql.Tx so a
// crash between writes can never leave a submission approved without its
// tool, or a rating stored without its aggregate.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"

	"github.com/sakif/wellness-directory/internal/repository"
)

// SQLite's LOWER folds ASCII only; search compares through unicode_lower so
// "ÄRGER" finds "Ärger" the same way repository.LikePattern folds the term.
func init() {
	moderncsqlite.MustRegisterDeterministicScalarFunction("unicode_lower", 1, unicodeLower)
}

func unicodeLower(_ *moderncsqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// compile-time check that *DB implements the full storage surface
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx, so scan helpers work
// inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/directory.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so in-memory mode is pinned to a single connection.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; ratings reference tools.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	// Wait for a competing writer instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id                 TEXT PRIMARY KEY,
			title              TEXT NOT NULL,
			url                TEXT NOT NULL,
			category           TEXT NOT NULL,
			description        TEXT NOT NULL,
			creator_name       TEXT NOT NULL,
			creator_link       TEXT NOT NULL DEFAULT '',
			creator_background TEXT NOT NULL DEFAULT '',
			thumbnail_url      TEXT NOT NULL DEFAULT '',
			submitter_ip       TEXT NOT NULL DEFAULT '',
			reviewed           INTEGER NOT NULL DEFAULT 0,
			approved           INTEGER NOT NULL DEFAULT 0,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			reviewed_at        DATETIME,
			CHECK (reviewed = 1 OR approved = 0)
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_pending ON submissions(reviewed, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating submissions table: %w", err)
	}

	// submission_id is UNIQUE: one submission can produce at most one tool,
	// even if two approvals race past the application-level guard.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tools (
			id                 TEXT PRIMARY KEY,
			submission_id      TEXT UNIQUE REFERENCES submissions(id),
			title              TEXT NOT NULL,
			url                TEXT NOT NULL,
			category           TEXT NOT NULL,
			description        TEXT NOT NULL,
			creator_name       TEXT NOT NULL,
			creator_link       TEXT NOT NULL DEFAULT '',
			creator_background TEXT NOT NULL DEFAULT '',
			thumbnail_url      TEXT NOT NULL DEFAULT '',
			avg_rating         REAL NOT NULL DEFAULT 0,
			total_ratings      INTEGER NOT NULL DEFAULT 0,
			view_count         INTEGER NOT NULL DEFAULT 0,
			click_count        INTEGER NOT NULL DEFAULT 0,
			approved           INTEGER NOT NULL DEFAULT 0,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tools_approved_category ON tools(approved, category);
	`)
	if err != nil {
		return fmt.Errorf("creating tools table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ratings (
			id         TEXT PRIMARY KEY,
			tool_id    TEXT NOT NULL REFERENCES tools(id),
			rater_id   TEXT NOT NULL,
			rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			review     TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (tool_id, rater_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating ratings table: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise. The error from fn is returned unwrapped so apperror values
// keep their identity.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// now returns the current time in UTC without a monotonic reading, so stored
// timestamps compare and sort consistently.
func now() time.Time {
	return time.Now().UTC()
}
