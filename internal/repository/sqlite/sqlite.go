// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code: no C compiler needed, works everywhere
// Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite" in its init().
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out the per-entity stores via
// Users() and Notes(). The pool is shared across all requests; its lifecycle
// is owned by whoever called New (the server closes it on shutdown).
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/notekeeper.db"  → file-based database (persistent)
//   - ":memory:"            → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A single pooled connection. SQLite serializes writes regardless, so
	// extra connections only buy SQLITE_BUSY errors. And an in-memory
	// database exists per connection, so with a pool the schema would
	// silently vanish whenever database/sql opened a second one.
	conn.SetMaxOpenConns(1)

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress.
	// Default SQLite locks the whole database during writes, which is a
	// problem for a web server handling parallel requests.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We need them for the
	// notes.user_id → users.id reference.
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

// Close closes the database connection pool. Always defer this next to the
// New call so the WAL is flushed and the file lock released on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// Notes returns the note repository backed by this database.
func (db *DB) Notes() *NoteStore {
	return &NoteStore{conn: db.conn}
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent, so
// running this on every startup is safe.
func (db *DB) migrate() error {
	// The UNIQUE constraint on email is the enforcement point for
	// one-account-per-email. The service layer reports the resulting
	// constraint violation as a generic creation failure.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_notes_user_id ON notes(user_id);
		CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating notes table: %w", err)
	}

	return nil
}
