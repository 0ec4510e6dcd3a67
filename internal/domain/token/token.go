package token

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenRepo persists the Google token obtained at sign-in, keyed by email.
// Tokens are stored and returned as-is; nothing refreshes them.
type TokenRepo interface {
	SaveToken(ctx context.Context, email string, token *oauth2.Token) error
	// GetToken returns nil, nil when no token was stored for email.
	GetToken(ctx context.Context, email string) (*oauth2.Token, error)
}
