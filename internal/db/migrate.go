package db

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS cookies (
		host       TEXT NOT NULL,
		name       TEXT NOT NULL,
		path       TEXT NOT NULL DEFAULT '/',
		value      TEXT NOT NULL,
		secure     INTEGER NOT NULL DEFAULT 0,
		http_only  INTEGER NOT NULL DEFAULT 0,
		same_site  TEXT NOT NULL DEFAULT '',
		expires_at INTEGER,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (host, name, path)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cookies_expires ON cookies(expires_at)`,
	`CREATE TABLE IF NOT EXISTS schema_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// SchemaVersion is recorded in schema_meta after every successful migration.
const SchemaVersion = "1"

// Migrate runs all schema migrations. It is safe to run repeatedly.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := recordSchemaVersion(db); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}

func recordSchemaVersion(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO schema_meta (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, SchemaVersion)
	return err
}

// Version reads the recorded schema version.
func Version(ctx context.Context, q DBTX) (string, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE key = 'version'`).Scan(&v)
	if err != nil {
		return "", fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
