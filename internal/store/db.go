// Package store provides SQLite-backed persistence for accounts, wish
// records, email signups and the early-access waitlist.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path and applies the schema.
func Open(path string) (*DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single writer keeps quota read-modify-write transactions serialized.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Str("path", path).Msg("Database opened")
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		api_key TEXT NOT NULL UNIQUE,
		tier TEXT NOT NULL DEFAULT 'free',
		wishes_this_month INTEGER NOT NULL DEFAULT 0,
		total_wishes INTEGER NOT NULL DEFAULT 0,
		bonus_wishes INTEGER NOT NULL DEFAULT 0,
		last_reset INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS wishes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		wish_text TEXT NOT NULL,
		intensity INTEGER NOT NULL,
		model TEXT NOT NULL,
		favorable_percent REAL NOT NULL,
		unfavorable_percent REAL NOT NULL,
		difference_from_baseline REAL NOT NULL,
		favorable_count INTEGER NOT NULL,
		unfavorable_count INTEGER NOT NULL,
		num_trials INTEGER NOT NULL,
		mixture_weight REAL NOT NULL,
		preference_strength REAL NOT NULL,
		dominant_peak INTEGER NOT NULL,
		coherence_label TEXT NOT NULL,
		ip_address TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS email_subscribers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		wants_wish_mates INTEGER NOT NULL DEFAULT 1,
		wants_tips INTEGER NOT NULL DEFAULT 1,
		wants_education INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL DEFAULT 'active',
		confirmed INTEGER NOT NULL DEFAULT 0,
		source TEXT,
		ip_address TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS waitlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		invited_at INTEGER,
		converted_at INTEGER,
		source TEXT,
		referral_code TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wishes_user ON wishes(user_id);
	CREATE INDEX IF NOT EXISTS idx_wishes_created ON wishes(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ping checks the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
