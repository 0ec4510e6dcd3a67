package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	user_repo "github.com/yaronsela1/productivity-bot/internal/domain/user"
	"github.com/yaronsela1/productivity-bot/internal/logging"
	"github.com/yaronsela1/productivity-bot/internal/service/dispatch"
)

type Runner interface {
	Run(ctx context.Context, interval string) (*dispatch.Result, error)
}

// Scheduler triggers a dispatch run for each check interval on its own
// ticker. The first run of an interval happens one period after Start.
type Scheduler struct {
	runner  Runner
	periods map[user_repo.Interval]time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(runner Runner) *Scheduler {
	periods := make(map[user_repo.Interval]time.Duration)
	for _, i := range user_repo.Intervals() {
		periods[i] = i.Period()
	}
	return &Scheduler{
		runner:  runner,
		periods: periods,
	}
}

// Start launches the tickers. They stop when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for interval, period := range s.periods {
		s.wg.Add(1)
		go s.loop(ctx, interval, period)
	}
	slog.Info("scheduler started", "intervals", len(s.periods))
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, interval user_repo.Interval, period time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, interval)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, interval user_repo.Interval) {
	res, err := s.runner.Run(ctx, string(interval))
	if err != nil {
		slog.Error("scheduled dispatch failed", "interval", interval, logging.Err(err))
		return
	}
	slog.Info("scheduled dispatch completed",
		"interval", interval,
		"total", res.Total,
		"successful", res.Successful,
		"failed", res.Failed,
	)
}
