package db

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS users (
		email          TEXT PRIMARY KEY,
		whitelist      TEXT NOT NULL DEFAULT '[]',
		check_interval TEXT NOT NULL DEFAULT '1h',
		slack_webhook  TEXT,
		updated_at     INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_check_interval ON users(check_interval)`,
	`CREATE TABLE IF NOT EXISTS oauth_tokens (
		email         TEXT PRIMARY KEY,
		access_token  TEXT NOT NULL,
		refresh_token TEXT,
		token_type    TEXT,
		expires_at    INTEGER,
		updated_at    INTEGER NOT NULL
	)`,
}

var schemaMySQL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		email          VARCHAR(320) NOT NULL PRIMARY KEY,
		whitelist      TEXT NOT NULL,
		check_interval VARCHAR(8) NOT NULL DEFAULT '1h',
		slack_webhook  TEXT NULL,
		updated_at     BIGINT NULL,
		INDEX idx_users_check_interval (check_interval)
	)`,
	`CREATE TABLE IF NOT EXISTS oauth_tokens (
		email         VARCHAR(320) NOT NULL PRIMARY KEY,
		access_token  TEXT NOT NULL,
		refresh_token TEXT NULL,
		token_type    VARCHAR(32) NULL,
		expires_at    BIGINT NULL,
		updated_at    BIGINT NOT NULL
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, conn *sql.DB, driver Driver) error {
	stmts := schemaSQLite
	if driver == DriverMySQL {
		stmts = schemaMySQL
	}

	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
