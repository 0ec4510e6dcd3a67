package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	check_repo "github.com/yaronsela1/productivity-bot/internal/domain/check"
	user_repo "github.com/yaronsela1/productivity-bot/internal/domain/user"
	"github.com/yaronsela1/productivity-bot/internal/logging"
	"github.com/yaronsela1/productivity-bot/internal/metrics"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidInterval = errors.New("interval must be one of 1h, 4h, 1d")

type Options struct {
	// Concurrency caps in-flight checks. Zero or less means no cap.
	Concurrency int
	// Timeout bounds each check request. Zero means no per-request timeout.
	Timeout time.Duration
}

type Service struct {
	userRepo  user_repo.UserRepo
	checkRepo check_repo.CheckRepo
	opts      Options
}

func NewService(userRepo user_repo.UserRepo, checkRepo check_repo.CheckRepo, opts Options) *Service {
	return &Service{
		userRepo:  userRepo,
		checkRepo: checkRepo,
		opts:      opts,
	}
}

// Run checks every user whose interval matches. Details follow the order
// the store returned the users in. One user's failure never stops the rest.
func (s *Service) Run(ctx context.Context, interval string) (*Result, error) {
	target, ok := user_repo.ParseInterval(interval)
	if !ok {
		return nil, ErrInvalidInterval
	}

	start := time.Now()
	metrics.IncDispatchRun(string(target))
	defer func() { metrics.ObserveDispatchDuration(time.Since(start)) }()

	users, err := s.userRepo.ListUsersByInterval(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	details := make([]Outcome, len(users))

	var g errgroup.Group
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}

	for i, u := range users {
		i, u := i, u
		if !u.HasWebhook() {
			details[i] = Skipped{UserEmail: u.Email, Reason: SkipReasonNoWebhook}
			continue
		}
		g.Go(func() error {
			details[i] = s.checkOne(ctx, u.Email)
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{
		Total:   len(users),
		Details: details,
	}
	for _, d := range details {
		metrics.IncDispatchOutcome(string(d.Status()))
		switch d.Status() {
		case StatusSuccess:
			result.Successful++
		case StatusFailed, StatusError:
			result.Failed++
		}
	}

	slog.Info("dispatch finished",
		"interval", target,
		"total", result.Total,
		"successful", result.Successful,
		"failed", result.Failed,
		"skipped", result.Count(StatusSkipped),
		"duration", time.Since(start),
	)

	return result, nil
}

func (s *Service) checkOne(ctx context.Context, email string) Outcome {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	reply, err := s.checkRepo.RequestCheck(ctx, email)
	if err != nil {
		slog.Warn("check request errored", logging.UserHash(email), logging.Err(err))
		return Errored{UserEmail: email, Error: err.Error()}
	}
	if !reply.OK() {
		slog.Warn("check failed",
			logging.UserHash(email),
			"status_code", reply.StatusCode,
			"error", reply.Error,
		)
		return Failed{UserEmail: email, Error: reply.Error}
	}

	return Succeeded{UserEmail: email, EmailCount: reply.EmailCount}
}
