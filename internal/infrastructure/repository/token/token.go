package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	token_domain "github.com/yaronsela1/productivity-bot/internal/domain/token"
	"github.com/yaronsela1/productivity-bot/internal/infrastructure/db"
	"golang.org/x/oauth2"
)

type tokenRepo struct {
	queries *db.Queries
	now     func() time.Time
}

var _ token_domain.TokenRepo = (*tokenRepo)(nil)

func NewTokenRepo(dbConn *sql.DB, driver db.Driver) token_domain.TokenRepo {
	return &tokenRepo{
		queries: db.New(dbConn, driver),
		now:     time.Now,
	}
}

func (r *tokenRepo) SaveToken(ctx context.Context, email string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("failed to save token: access token is empty")
	}

	var refreshToken, tokenType sql.NullString
	var expiresAt sql.NullInt64

	if token.RefreshToken != "" {
		refreshToken = sql.NullString{String: token.RefreshToken, Valid: true}
	}
	if token.TokenType != "" {
		tokenType = sql.NullString{String: token.TokenType, Valid: true}
	}
	if !token.Expiry.IsZero() {
		expiresAt = sql.NullInt64{Int64: token.Expiry.Unix(), Valid: true}
	}

	err := r.queries.UpsertOauthToken(ctx, db.UpsertOauthTokenParams{
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresAt:    expiresAt,
		UpdatedAt:    r.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

func (r *tokenRepo) GetToken(ctx context.Context, email string) (*oauth2.Token, error) {
	row, err := r.queries.GetOauthToken(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	token := &oauth2.Token{AccessToken: row.AccessToken}
	if row.RefreshToken.Valid {
		token.RefreshToken = row.RefreshToken.String
	}
	if row.TokenType.Valid {
		token.TokenType = row.TokenType.String
	}
	if row.ExpiresAt.Valid {
		token.Expiry = time.Unix(row.ExpiresAt.Int64, 0)
	}

	return token, nil
}
