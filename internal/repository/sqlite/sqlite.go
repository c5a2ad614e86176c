// Package sqlite implements repository.Directory using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed
// and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code: no C compiler needed.
//
// The default DSN is ":memory:", so out of the box this backend is exactly
// as ephemeral as repository/memory. Point STORE_DSN at a file if you want
// the data to outlive the process.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the directory methods
// (see user.go and todo.go).
type DB struct {
	conn *sql.DB
}

// New opens the database and runs migrations.
//
// dbPath examples:
//   - "data/todos.db" → file-based database
//   - ":memory:"      → in-memory database, lost on close
//
// ONE CONNECTION ONLY:
// Every new connection to ":memory:" gets its OWN empty database, so the
// pool is pinned to a single connection. That also serialises every
// statement, which is what keeps check-then-insert in CreateUser and the
// update-then-read in the todo methods race free.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// sql.Open doesn't connect; Ping forces it so a bad path fails here.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	// todos.user_id must point at a real user.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
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

// Ping reports whether the database is still reachable. Used by /health.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS makes it safe to
// run on every start.
//
// todos.seq is an AUTOINCREMENT column that exists only to give "insertion
// order" a durable meaning: list queries ORDER BY seq, and deleting a row
// leaves the relative order of the others untouched.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id       TEXT PRIMARY KEY,
			name     TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL UNIQUE
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS todos (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			title      TEXT NOT NULL DEFAULT '',
			done       BOOLEAN NOT NULL DEFAULT 0,
			deadline   DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id, seq);
	`)
	if err != nil {
		return fmt.Errorf("creating todos table: %w", err)
	}

	return nil
}
