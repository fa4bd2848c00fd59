// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code and works everywhere Go works.
//
// ONE CONNECTION:
// The pool is capped at a single open connection. Every read-check-write on
// the attendance ledger runs inside a transaction on that connection, so two
// concurrent check-ins for the same user are serialised by the pool itself.
// The partial unique index on open records backs this up at the schema level.
//
// Because of the cap, code running inside a transaction must only use the
// *sql.Tx it was handed. Touching db.conn from there would wait forever for
// the connection the transaction already holds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/MehvishSheikh/attendance-webapp/internal/model"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database, applies the schema and seeds the location
// registry.
//
// dbPath examples:
//   - "data/attendance.db"  → file-based database (persistent)
//   - ":memory:"            → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	// Attendance rows reference users and locations, so we want them enforced.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	if err := db.seedLocations(context.Background(), model.DefaultLocations); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: seeding locations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes every statement
// safe to run on an existing database.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_admin      INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email COLLATE NOCASE);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS locations (
			id      INTEGER PRIMARY KEY,
			pincode TEXT NOT NULL,
			name    TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating locations table: %w", err)
	}

	// idx_attendance_one_open is the storage-level guarantee that a user has
	// at most one open record per day.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS attendance_records (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			day          TEXT NOT NULL,
			checkin_at   DATETIME NOT NULL,
			checkout_at  DATETIME,
			location_id  INTEGER NOT NULL REFERENCES locations(id),
			task         TEXT NOT NULL DEFAULT '',
			task_status  TEXT NOT NULL DEFAULT '',
			project_name TEXT NOT NULL DEFAULT '',
			CHECK (checkout_at IS NULL OR checkout_at >= checkin_at)
		);
		CREATE INDEX IF NOT EXISTS idx_attendance_user_day ON attendance_records(user_id, day);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_one_open
			ON attendance_records(user_id, day) WHERE checkout_at IS NULL;
	`)
	if err != nil {
		return fmt.Errorf("creating attendance_records table: %w", err)
	}

	// record_id is the primary key, so a record has zero or one geo sample.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS geo_samples (
			record_id   TEXT PRIMARY KEY REFERENCES attendance_records(id) ON DELETE CASCADE,
			latitude    REAL NOT NULL,
			longitude   REAL NOT NULL,
			pincode     TEXT NOT NULL DEFAULT '',
			address     TEXT NOT NULL DEFAULT '',
			captured_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating geo_samples table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS revoked_tokens (
			token_id   TEXT PRIMARY KEY,
			expires_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires ON revoked_tokens(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating revoked_tokens table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a row because of
// a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(se.Error(), "UNIQUE")
		}
	}
	return false
}
