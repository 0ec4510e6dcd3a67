package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gmail_repo "github.com/yaronsela1/productivity-bot/internal/domain/gmail"
	slack_repo "github.com/yaronsela1/productivity-bot/internal/domain/slack"
	user_repo "github.com/yaronsela1/productivity-bot/internal/domain/user"
	"github.com/yaronsela1/productivity-bot/internal/logging"
	"golang.org/x/oauth2"
)

// probeSince is the lookback used by the manual Gmail probe.
const probeSince = string(user_repo.IntervalDaily)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUserNotFound     = errors.New("user not found")
	ErrWebhookMissing   = errors.New("slack webhook not configured")
	ErrNotAuthenticated = errors.New("not authenticated")
)

const (
	ServiceGmail = "gmail"
	ServiceSlack = "slack"
)

// UpstreamError reports a failed Gmail or Slack call.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return e.Service + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type CheckResult struct {
	EmailCount   int
	MentionCount int
}

type ProbeResult struct {
	Emails    []gmail_repo.Message
	Whitelist []string
}

type Service struct {
	gmailRepo   gmail_repo.GmailRepo
	slackRepo   slack_repo.SlackRepo
	mentionRepo slack_repo.MentionRepo
	userRepo    user_repo.UserRepo
	now         func() time.Time
}

func NewService(gmailRepo gmail_repo.GmailRepo, slackRepo slack_repo.SlackRepo, mentionRepo slack_repo.MentionRepo, userRepo user_repo.UserRepo) *Service {
	return &Service{
		gmailRepo:   gmailRepo,
		slackRepo:   slackRepo,
		mentionRepo: mentionRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

func hasAccessToken(token *oauth2.Token) bool {
	return token != nil && token.AccessToken != ""
}

// Check fetches the user's whitelisted unread mail and posts a summary to
// their Slack webhook.
func (s *Service) Check(ctx context.Context, email string, token *oauth2.Token) (*CheckResult, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	user, err := s.userRepo.GetUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.HasWebhook() {
		return nil, ErrWebhookMissing
	}
	if !hasAccessToken(token) {
		return nil, ErrNotAuthenticated
	}

	since := user.CheckInterval
	if since == "" {
		since = user_repo.DefaultInterval
	}

	emails, err := s.gmailRepo.GetImportantMessages(ctx, token, gmail_repo.Query{
		Whitelist: user.Whitelist,
		Since:     string(since),
		Now:       s.now(),
	})
	if err != nil {
		return nil, &UpstreamError{Service: ServiceGmail, Err: err}
	}

	mentions, err := s.mentionRepo.GetMentions(ctx, email)
	if err != nil {
		return nil, &UpstreamError{Service: ServiceSlack, Err: err}
	}

	summary := slack_repo.Summary{Emails: emails, Mentions: mentions}
	if err := s.slackRepo.PostSummary(ctx, *user.SlackWebhook, summary); err != nil {
		return nil, &UpstreamError{Service: ServiceSlack, Err: err}
	}

	slog.Info("summary sent",
		logging.UserHash(email),
		"interval", since,
		"email_count", len(emails),
		"mention_count", len(mentions),
	)

	return &CheckResult{
		EmailCount:   len(emails),
		MentionCount: len(mentions),
	}, nil
}

// ProbeGmail runs the mail query for the last day with the user's stored
// whitelist, without posting anything. A missing record means no whitelist.
func (s *Service) ProbeGmail(ctx context.Context, email string, token *oauth2.Token) (*ProbeResult, error) {
	if !hasAccessToken(token) {
		return nil, ErrNotAuthenticated
	}
	if email == "" {
		return nil, fmt.Errorf("%w: user email not found in session", ErrInvalidInput)
	}

	whitelist := []string{}
	user, err := s.userRepo.GetUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil && user.Whitelist != nil {
		whitelist = user.Whitelist
	}

	emails, err := s.gmailRepo.GetImportantMessages(ctx, token, gmail_repo.Query{
		Whitelist: whitelist,
		Since:     probeSince,
		Now:       s.now(),
	})
	if err != nil {
		return nil, &UpstreamError{Service: ServiceGmail, Err: err}
	}
	if emails == nil {
		emails = []gmail_repo.Message{}
	}

	slog.Debug("gmail probe finished", logging.UserHash(email), "email_count", len(emails))

	return &ProbeResult{Emails: emails, Whitelist: whitelist}, nil
}

// ForwardToSlack posts caller-built blocks to a webhook as-is. Upstream
// non-2xx answers surface as *slack.ForwardError.
func (s *Service) ForwardToSlack(ctx context.Context, webhookURL string, blocks json.RawMessage) error {
	if webhookURL == "" || len(blocks) == 0 || string(blocks) == "null" {
		return fmt.Errorf("%w: webhookUrl and blocks are required", ErrInvalidInput)
	}

	if err := s.slackRepo.ForwardBlocks(ctx, webhookURL, blocks); err != nil {
		return &UpstreamError{Service: ServiceSlack, Err: err}
	}
	return nil
}
