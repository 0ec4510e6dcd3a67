package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db      DBTX
	dialect Driver
}

func New(db DBTX, dialect Driver) *Queries {
	if dialect == "" {
		dialect = DriverSQLite
	}
	return &Queries{db: db, dialect: dialect}
}

const getUser = `SELECT email, whitelist, check_interval, slack_webhook, updated_at
FROM users WHERE email = ?`

func (q *Queries) GetUser(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, email)
	var i User
	err := row.Scan(&i.Email, &i.Whitelist, &i.CheckInterval, &i.SlackWebhook, &i.UpdatedAt)
	return i, err
}

const listUsersByInterval = `SELECT email, whitelist, check_interval, slack_webhook, updated_at
FROM users WHERE check_interval = ? ORDER BY email`

func (q *Queries) ListUsersByInterval(ctx context.Context, interval string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsersByInterval, interval)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.Email, &i.Whitelist, &i.CheckInterval, &i.SlackWebhook, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Null params leave the stored column untouched on conflict.
type UpsertUserParams struct {
	Email         string
	Whitelist     sql.NullString
	CheckInterval sql.NullString
	SlackWebhook  sql.NullString
	UpdatedAt     sql.NullInt64
}

const upsertUserSQLite = `INSERT INTO users (email, whitelist, check_interval, slack_webhook, updated_at)
VALUES (?, COALESCE(?, '[]'), COALESCE(?, '1h'), ?, ?)
ON CONFLICT(email) DO UPDATE SET
	whitelist = COALESCE(?, users.whitelist),
	check_interval = COALESCE(?, users.check_interval),
	slack_webhook = COALESCE(?, users.slack_webhook),
	updated_at = COALESCE(?, users.updated_at)`

const upsertUserMySQL = `INSERT INTO users (email, whitelist, check_interval, slack_webhook, updated_at)
VALUES (?, COALESCE(?, '[]'), COALESCE(?, '1h'), ?, ?)
ON DUPLICATE KEY UPDATE
	whitelist = COALESCE(?, whitelist),
	check_interval = COALESCE(?, check_interval),
	slack_webhook = COALESCE(?, slack_webhook),
	updated_at = COALESCE(?, updated_at)`

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) error {
	query := upsertUserSQLite
	if q.dialect == DriverMySQL {
		query = upsertUserMySQL
	}
	_, err := q.db.ExecContext(ctx, query,
		arg.Email, arg.Whitelist, arg.CheckInterval, arg.SlackWebhook, arg.UpdatedAt,
		arg.Whitelist, arg.CheckInterval, arg.SlackWebhook, arg.UpdatedAt,
	)
	return err
}

const getOauthToken = `SELECT email, access_token, refresh_token, token_type, expires_at, updated_at
FROM oauth_tokens WHERE email = ?`

func (q *Queries) GetOauthToken(ctx context.Context, email string) (OauthToken, error) {
	row := q.db.QueryRowContext(ctx, getOauthToken, email)
	var i OauthToken
	err := row.Scan(&i.Email, &i.AccessToken, &i.RefreshToken, &i.TokenType, &i.ExpiresAt, &i.UpdatedAt)
	return i, err
}

type UpsertOauthTokenParams struct {
	Email        string
	AccessToken  string
	RefreshToken sql.NullString
	TokenType    sql.NullString
	ExpiresAt    sql.NullInt64
	UpdatedAt    int64
}

const upsertOauthTokenSQLite = `INSERT INTO oauth_tokens (email, access_token, refresh_token, token_type, expires_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(email) DO UPDATE SET
	access_token = excluded.access_token,
	refresh_token = COALESCE(excluded.refresh_token, oauth_tokens.refresh_token),
	token_type = excluded.token_type,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at`

const upsertOauthTokenMySQL = `INSERT INTO oauth_tokens (email, access_token, refresh_token, token_type, expires_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
	access_token = VALUES(access_token),
	refresh_token = COALESCE(VALUES(refresh_token), refresh_token),
	token_type = VALUES(token_type),
	expires_at = VALUES(expires_at),
	updated_at = VALUES(updated_at)`

func (q *Queries) UpsertOauthToken(ctx context.Context, arg UpsertOauthTokenParams) error {
	query := upsertOauthTokenSQLite
	if q.dialect == DriverMySQL {
		query = upsertOauthTokenMySQL
	}
	_, err := q.db.ExecContext(ctx, query,
		arg.Email, arg.AccessToken, arg.RefreshToken, arg.TokenType, arg.ExpiresAt, arg.UpdatedAt,
	)
	return err
}
