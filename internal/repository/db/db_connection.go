package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// one writer; the scheduler and HTTP handlers share it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

var pragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

const schemaSettings = `
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    time_zone TEXT,
    left_away BOOLEAN NOT NULL DEFAULT 0,
    right_away BOOLEAN NOT NULL DEFAULT 0,
    prime_enabled BOOLEAN NOT NULL DEFAULT 0,
    prime_time TEXT NOT NULL DEFAULT '14:00',
    updated_at TIMESTAMP NOT NULL
);
`

const schemaSchedules = `
CREATE TABLE IF NOT EXISTS schedules (
    side TEXT NOT NULL CHECK (side IN ('left', 'right')),
    day TEXT NOT NULL,
    body TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (side, day)
);
`

const schemaServices = `
CREATE TABLE IF NOT EXISTS services (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    biometrics_enabled BOOLEAN NOT NULL DEFAULT 0,
    biometrics_jobs TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaJobEvents = `
CREATE TABLE IF NOT EXISTS job_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    job_key TEXT,
    side TEXT,
    message TEXT NOT NULL,
    error TEXT,
    meta TEXT
);
`

const indexJobEventsOccurredAt = `
CREATE INDEX IF NOT EXISTS idx_job_events_occurred_at ON job_events (occurred_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaSettings,
		schemaSchedules,
		schemaServices,
		schemaJobEvents,
		indexJobEventsOccurredAt,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
