package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gmail_domain "github.com/yaronsela1/productivity-bot/internal/domain/gmail"
	"github.com/yaronsela1/productivity-bot/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user           = "me"
	noSubject      = "(No subject)"
	messageURLBase = "https://mail.google.com/mail/u/0/#inbox/"
)

type gmailRepo struct {
	httpClient *http.Client
	opts       []option.ClientOption
}

var _ gmail_domain.GmailRepo = (*gmailRepo)(nil)

// NewGmailRepo returns a Gmail client. httpClient is the base transport the
// bearer token is layered on; nil uses http.DefaultClient. opts are passed to
// gmail.NewService after the authenticated client.
func NewGmailRepo(httpClient *http.Client, opts ...option.ClientOption) gmail_domain.GmailRepo {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &gmailRepo{
		httpClient: httpClient,
		opts:       opts,
	}
}

// Lookback returns the search window for a check interval value. Unknown
// values yield zero, so the search starts at the current day.
func Lookback(since string) time.Duration {
	switch since {
	case "1d":
		return 24 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "1h":
		return time.Hour
	}
	return 0
}

// BuildSearchQuery renders the Gmail search filter for unread mail since the
// lookback start, restricted to whitelisted senders when any are given.
func BuildSearchQuery(whitelist []string, since string, now time.Time) string {
	after := now.Add(-Lookback(since)).UTC().Format("2006-01-02")
	q := "is:unread after:" + after

	if len(whitelist) > 0 {
		clauses := make([]string, 0, len(whitelist))
		for _, addr := range whitelist {
			clauses = append(clauses, "from:"+addr)
		}
		q += " AND (" + strings.Join(clauses, " OR ") + ")"
	}
	return q
}

func MessageURL(id string) string {
	return messageURLBase + id
}

// getServiceWithToken creates a Gmail service that sends token as-is.
// Expired tokens are not refreshed.
func (r *gmailRepo) getServiceWithToken(ctx context.Context, token *oauth2.Token) (*gmail.Service, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, r.opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}
	return srv, nil
}

func (r *gmailRepo) GetImportantMessages(ctx context.Context, token *oauth2.Token, q gmail_domain.Query) (messages []gmail_domain.Message, err error) {
	defer func() { metrics.ObserveGmailQuery(err) }()

	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("gmail access token is empty")
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	service, err := r.getServiceWithToken(ctx, token)
	if err != nil {
		return nil, err
	}

	query := BuildSearchQuery(q.Whitelist, q.Since, now)
	slog.Debug("searching gmail", "query", query)

	list, err := service.Users.Messages.List(user).
		Q(query).
		MaxResults(gmail_domain.MaxMessages).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to search messages: %w", err)
	}

	ids := make([]string, 0, gmail_domain.MaxMessages)
	for _, m := range list.Messages {
		if len(ids) == gmail_domain.MaxMessages {
			break
		}
		ids = append(ids, m.Id)
	}

	messages = make([]gmail_domain.Message, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			msg, err := r.getMessage(gctx, service, id)
			if err != nil {
				return err
			}
			messages[i] = *msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *gmailRepo) getMessage(ctx context.Context, service *gmail.Service, messageID string) (*gmail_domain.Message, error) {
	msg, err := service.Users.Messages.Get(user, messageID).
		Format("metadata").
		MetadataHeaders("Subject", "From", "Date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message %s: %w", messageID, err)
	}

	var from, subject, date string
	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				from = header.Value
			case "Subject":
				subject = header.Value
			case "Date":
				date = header.Value
			}
		}
	}
	if subject == "" {
		subject = noSubject
	}

	return &gmail_domain.Message{
		ID:      msg.Id,
		From:    from,
		Subject: subject,
		Date:    date,
		Snippet: msg.Snippet,
		URL:     MessageURL(msg.Id),
	}, nil
}
