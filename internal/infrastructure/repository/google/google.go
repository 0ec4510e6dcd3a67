package google

import (
	"context"
	"fmt"
	"net/http"

	google_domain "github.com/yaronsela1/productivity-bot/internal/domain/google"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Scopes requested at sign-in.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	googleoauth.UserinfoProfileScope,
	googleoauth.UserinfoEmailScope,
}

type authRepo struct {
	config     *oauth2.Config
	httpClient *http.Client
	opts       []option.ClientOption
}

var _ google_domain.AuthRepo = (*authRepo)(nil)

// NewAuthRepo builds the sign-in flow for a web client. redirectURL must match
// the callback registered with Google. opts apply to the userinfo client.
func NewAuthRepo(clientID, clientSecret, redirectURL string, httpClient *http.Client, opts ...option.ClientOption) google_domain.AuthRepo {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &authRepo{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		httpClient: httpClient,
		opts:       opts,
	}
}

func (r *authRepo) GetAuthURL(state string) string {
	return r.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (r *authRepo) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	token, err := r.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

func (r *authRepo) GetUserEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, r.opts...)
	srv, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("unable to create userinfo service: %w", err)
	}

	info, err := srv.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get user info: %w", err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("user info has no email")
	}
	return info.Email, nil
}
