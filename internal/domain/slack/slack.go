package slack

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/yaronsela1/productivity-bot/internal/domain/gmail"
)

type Mention struct {
	User      string `json:"user"`
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
}

type Summary struct {
	Emails   []gmail.Message
	Mentions []Mention
}

// ForwardError carries a non-2xx webhook response so callers can echo it.
type ForwardError struct {
	StatusCode int
	Body       string
}

func (e *ForwardError) Error() string {
	return "Slack API responded with status: " + strconv.Itoa(e.StatusCode)
}

type SlackRepo interface {
	PostSummary(ctx context.Context, webhookURL string, summary Summary) error
	// ForwardBlocks posts pre-rendered blocks verbatim. Non-2xx responses
	// are returned as *ForwardError.
	ForwardBlocks(ctx context.Context, webhookURL string, blocks json.RawMessage) error
}

type MentionRepo interface {
	GetMentions(ctx context.Context, email string) ([]Mention, error)
}
