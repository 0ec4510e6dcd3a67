package google

import (
	"context"

	"golang.org/x/oauth2"
)

type AuthRepo interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserEmail(ctx context.Context, token *oauth2.Token) (string, error)
}
