package slack

import (
	"context"

	slack_domain "github.com/yaronsela1/productivity-bot/internal/domain/slack"
)

type mentionRepo struct{}

var _ slack_domain.MentionRepo = (*mentionRepo)(nil)

// NewMentionRepo returns a mention source with no backing workspace. It always
// reports zero mentions.
func NewMentionRepo() slack_domain.MentionRepo {
	return &mentionRepo{}
}

func (r *mentionRepo) GetMentions(ctx context.Context, email string) ([]slack_domain.Mention, error) {
	return []slack_domain.Mention{}, nil
}
