package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Interval string

const (
	IntervalHourly     Interval = "1h"
	IntervalFourHourly Interval = "4h"
	IntervalDaily      Interval = "1d"

	DefaultInterval = IntervalHourly
)

var ErrInvalidSettings = errors.New("invalid settings")

// Intervals lists the check intervals a user can choose, shortest first.
func Intervals() []Interval {
	return []Interval{IntervalHourly, IntervalFourHourly, IntervalDaily}
}

func ParseInterval(s string) (Interval, bool) {
	for _, i := range Intervals() {
		if string(i) == s {
			return i, true
		}
	}
	return "", false
}

// Period is the wall-clock cadence of a scheduled run for the interval.
func (i Interval) Period() time.Duration {
	switch i {
	case IntervalHourly:
		return time.Hour
	case IntervalFourHourly:
		return 4 * time.Hour
	case IntervalDaily:
		return 24 * time.Hour
	}
	return 0
}

// UserConfig is the per-email settings record. Email is also the store key.
type UserConfig struct {
	Email         string
	Whitelist     []string
	CheckInterval Interval
	SlackWebhook  *string
	UpdatedAt     time.Time
}

// HasWebhook reports whether the user can receive Slack summaries.
func (u *UserConfig) HasWebhook() bool {
	return u.SlackWebhook != nil && *u.SlackWebhook != ""
}

// UserConfigPatch is a partial record for merge-writes. Nil fields are left
// untouched in the store.
type UserConfigPatch struct {
	Whitelist     *[]string
	CheckInterval *Interval
	SlackWebhook  *string
	UpdatedAt     time.Time
}

// Normalize trims and de-duplicates the whitelist and validates every set
// field. It returns an error wrapping ErrInvalidSettings.
func (p *UserConfigPatch) Normalize() error {
	if p.Whitelist != nil {
		seen := make(map[string]bool, len(*p.Whitelist))
		list := make([]string, 0, len(*p.Whitelist))
		for _, addr := range *p.Whitelist {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				return fmt.Errorf("%w: whitelist entries must not be empty", ErrInvalidSettings)
			}
			if seen[addr] {
				continue
			}
			seen[addr] = true
			list = append(list, addr)
		}
		p.Whitelist = &list
	}

	if p.CheckInterval != nil {
		if _, ok := ParseInterval(string(*p.CheckInterval)); !ok {
			return fmt.Errorf("%w: check interval must be one of 1h, 4h, 1d", ErrInvalidSettings)
		}
	}

	if p.SlackWebhook != nil && *p.SlackWebhook != "" {
		u, err := url.Parse(*p.SlackWebhook)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: slack webhook must be an absolute http(s) URL", ErrInvalidSettings)
		}
	}

	return nil
}

type UserRepo interface {
	// GetUser returns nil, nil when no record exists for email.
	GetUser(ctx context.Context, email string) (*UserConfig, error)
	SaveUser(ctx context.Context, email string, patch UserConfigPatch) error
	ListUsersByInterval(ctx context.Context, interval Interval) ([]UserConfig, error)
}
