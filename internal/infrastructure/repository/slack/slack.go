package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	slack_domain "github.com/yaronsela1/productivity-bot/internal/domain/slack"
	"github.com/yaronsela1/productivity-bot/internal/metrics"
)

const (
	headerText     = "📬 Your Productivity Summary"
	noEmailsText   = "No important emails to report! 🎉"
	emailsIntro    = "*Important Emails:*"
	mentionsIntro  = "*Recent Slack Mentions:*"
	openEmailLabel = "Open Email"

	// en-US locale style, e.g. 3/10/2024, 2:30:00 PM
	lastUpdatedLayout = "1/2/2006, 3:04:05 PM"

	maxErrorBody = 4 << 10
)

type slackRepo struct {
	httpClient *http.Client
	now        func() time.Time
}

var _ slack_domain.SlackRepo = (*slackRepo)(nil)

func NewSlackRepo(httpClient *http.Client) slack_domain.SlackRepo {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &slackRepo{
		httpClient: httpClient,
		now:        time.Now,
	}
}

// RenderBlocks lays out a summary as Block Kit blocks. renderedAt is shown in
// the trailing context block.
func RenderBlocks(summary slack_domain.Summary, renderedAt time.Time) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, headerText, true, false)),
		slack.NewDividerBlock(),
	}

	if len(summary.Emails) == 0 {
		blocks = append(blocks, markdownSection(noEmailsText, nil))
	} else {
		blocks = append(blocks, markdownSection(emailsIntro, nil))
		for i, email := range summary.Emails {
			text := fmt.Sprintf("*From:* %s\n*Subject:* %s\n%s", email.From, email.Subject, email.Snippet)

			button := slack.NewButtonBlockElement(
				fmt.Sprintf("open_email_%d", i),
				email.ID,
				slack.NewTextBlockObject(slack.PlainTextType, openEmailLabel, true, false),
			)
			button.URL = email.URL

			blocks = append(blocks, markdownSection(text, slack.NewAccessory(button)))
		}
	}

	if len(summary.Mentions) > 0 {
		blocks = append(blocks, slack.NewDividerBlock(), markdownSection(mentionsIntro, nil))
		for _, m := range summary.Mentions {
			text := fmt.Sprintf("*%s* in *%s*:\n%s", m.User, m.Channel, m.Text)
			blocks = append(blocks, markdownSection(text, nil))
		}
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, "Last updated: "+renderedAt.Format(lastUpdatedLayout), false, false),
	))

	return blocks
}

func markdownSection(text string, accessory *slack.Accessory) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, accessory)
}

func (r *slackRepo) PostSummary(ctx context.Context, webhookURL string, summary slack_domain.Summary) (err error) {
	defer func() { metrics.ObserveSlackPost(err) }()

	msg := &slack.WebhookMessage{
		Blocks: &slack.Blocks{BlockSet: RenderBlocks(summary, r.now())},
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, webhookURL, r.httpClient, msg); err != nil && !isSuccessStatus(err) {
		slog.Error("failed to post slack summary", "error", err)
		return fmt.Errorf("failed to post slack summary: %w", err)
	}

	slog.Debug("slack summary posted", "emails", len(summary.Emails), "mentions", len(summary.Mentions))
	return nil
}

// isSuccessStatus reports whether err is slack-go's rejection of a 2xx reply
// other than 200. Webhooks may answer 201, 202 or 204 on delivery.
func isSuccessStatus(err error) bool {
	var statusErr slack.StatusCodeError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.Code >= 200 && statusErr.Code < 300
}

// ForwardBlocks posts {"blocks": blocks} without decoding the blocks.
func (r *slackRepo) ForwardBlocks(ctx context.Context, webhookURL string, blocks json.RawMessage) (err error) {
	defer func() { metrics.ObserveSlackPost(err) }()

	payload, err := json.Marshal(struct {
		Blocks json.RawMessage `json:"blocks"`
	}{Blocks: blocks})
	if err != nil {
		return fmt.Errorf("failed to encode blocks: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &slack_domain.ForwardError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil
}
