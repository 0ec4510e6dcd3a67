package db

import "database/sql"

type User struct {
	Email         string
	Whitelist     string
	CheckInterval string
	SlackWebhook  sql.NullString
	UpdatedAt     sql.NullInt64
}

type OauthToken struct {
	Email        string
	AccessToken  string
	RefreshToken sql.NullString
	TokenType    sql.NullString
	ExpiresAt    sql.NullInt64
	UpdatedAt    int64
}
