package gmail

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// MaxMessages caps how many search hits get a detail request.
const MaxMessages = 10

type Message struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

type Query struct {
	Whitelist []string
	// Since is a check interval value ("1h", "4h", "1d"). Unknown values
	// leave the lookback window at zero.
	Since string
	Now   time.Time
}

type GmailRepo interface {
	GetImportantMessages(ctx context.Context, token *oauth2.Token, q Query) ([]Message, error)
}
