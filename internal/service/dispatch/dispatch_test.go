package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	check_repo "github.com/yaronsela1/productivity-bot/internal/domain/check"
	user_repo "github.com/yaronsela1/productivity-bot/internal/domain/user"
)

type mockUserRepo struct {
	users     []user_repo.UserConfig
	err       error
	listCalls atomic.Int32
	lastQuery user_repo.Interval
}

func (m *mockUserRepo) GetUser(ctx context.Context, email string) (*user_repo.UserConfig, error) {
	return nil, nil
}

func (m *mockUserRepo) SaveUser(ctx context.Context, email string, patch user_repo.UserConfigPatch) error {
	return nil
}

func (m *mockUserRepo) ListUsersByInterval(ctx context.Context, interval user_repo.Interval) ([]user_repo.UserConfig, error) {
	m.listCalls.Add(1)
	m.lastQuery = interval
	return m.users, m.err
}

type checkFunc func(ctx context.Context, email string) (*check_repo.Reply, error)

type mockCheckRepo struct {
	fn    checkFunc
	mu    sync.Mutex
	calls []string
}

func (m *mockCheckRepo) RequestCheck(ctx context.Context, email string) (*check_repo.Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, email)
	m.mu.Unlock()
	return m.fn(ctx, email)
}

func (m *mockCheckRepo) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func withHook(email string) user_repo.UserConfig {
	hook := "https://hooks.slack.com/services/" + email
	return user_repo.UserConfig{Email: email, CheckInterval: user_repo.IntervalHourly, SlackWebhook: &hook}
}

func withoutHook(email string) user_repo.UserConfig {
	return user_repo.UserConfig{Email: email, CheckInterval: user_repo.IntervalHourly}
}

func okReply(count int) *check_repo.Reply {
	return &check_repo.Reply{StatusCode: http.StatusOK, Success: true, EmailCount: count}
}

func TestRun_InvalidIntervalRejectedBeforeStore(t *testing.T) {
	for _, interval := range []string{"2h", "", "1H", "24h"} {
		t.Run(interval, func(t *testing.T) {
			users := &mockUserRepo{}
			s := NewService(users, &mockCheckRepo{}, Options{})

			res, err := s.Run(context.Background(), interval)
			assert.ErrorIs(t, err, ErrInvalidInterval)
			assert.Nil(t, res)
			assert.Equal(t, int32(0), users.listCalls.Load())
		})
	}
}

func TestRun_SkipsUsersWithoutWebhook(t *testing.T) {
	users := &mockUserRepo{users: []user_repo.UserConfig{
		withHook("a@example.com"),
		withoutHook("b@example.com"),
		withHook("c@example.com"),
		withoutHook("d@example.com"),
		withHook("e@example.com"),
	}}
	checks := &mockCheckRepo{fn: func(ctx context.Context, email string) (*check_repo.Reply, error) {
		return okReply(2), nil
	}}

	res, err := NewService(users, checks, Options{}).Run(context.Background(), "1h")
	require.NoError(t, err)

	assert.Equal(t, user_repo.IntervalHourly, users.lastQuery)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.Successful)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 2, res.Count(StatusSkipped))
	assert.ElementsMatch(t, []string{"a@example.com", "c@example.com", "e@example.com"}, checks.called())

	// details follow store order
	require.Len(t, res.Details, 5)
	for i, want := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"} {
		assert.Equal(t, want, res.Details[i].Email())
	}
	assert.Equal(t, Skipped{UserEmail: "b@example.com", Reason: SkipReasonNoWebhook}, res.Details[1])
	assert.Equal(t, Succeeded{UserEmail: "a@example.com", EmailCount: 2}, res.Details[0])
}

func TestRun_FailureIsolation(t *testing.T) {
	users := &mockUserRepo{users: []user_repo.UserConfig{
		withHook("ok1@example.com"),
		withHook("failed@example.com"),
		withHook("errored@example.com"),
		withHook("ok2@example.com"),
	}}
	checks := &mockCheckRepo{fn: func(ctx context.Context, email string) (*check_repo.Reply, error) {
		switch email {
		case "failed@example.com":
			return &check_repo.Reply{StatusCode: http.StatusUnauthorized, Error: "Not authenticated"}, nil
		case "errored@example.com":
			return nil, errors.New("connection refused")
		}
		return okReply(1), nil
	}}

	res, err := NewService(users, checks, Options{}).Run(context.Background(), "1h")
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 2, res.Failed)

	assert.Equal(t, Succeeded{UserEmail: "ok1@example.com", EmailCount: 1}, res.Details[0])
	assert.Equal(t, Failed{UserEmail: "failed@example.com", Error: "Not authenticated"}, res.Details[1])
	assert.Equal(t, Errored{UserEmail: "errored@example.com", Error: "connection refused"}, res.Details[2])
	assert.Equal(t, Succeeded{UserEmail: "ok2@example.com", EmailCount: 1}, res.Details[3])
}

func TestRun_StoreFailure(t *testing.T) {
	users := &mockUserRepo{err: errors.New("db down")}
	_, err := NewService(users, &mockCheckRepo{}, Options{}).Run(context.Background(), "4h")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInterval)
}

func TestRun_NoCandidates(t *testing.T) {
	res, err := NewService(&mockUserRepo{}, &mockCheckRepo{}, Options{}).Run(context.Background(), "1d")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Details)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"successful":0,"failed":0,"details":[]}`, string(b))
}

func TestRun_ConcurrencyCap(t *testing.T) {
	var users []user_repo.UserConfig
	for _, e := range []string{"a", "b", "c", "d", "e", "f"} {
		users = append(users, withHook(e+"@example.com"))
	}

	var inFlight, peak atomic.Int32
	checks := &mockCheckRepo{fn: func(ctx context.Context, email string) (*check_repo.Reply, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return okReply(0), nil
	}}

	res, err := NewService(&mockUserRepo{users: users}, checks, Options{Concurrency: 2}).Run(context.Background(), "1h")
	require.NoError(t, err)
	assert.Equal(t, 6, res.Successful)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_PerRequestTimeout(t *testing.T) {
	users := &mockUserRepo{users: []user_repo.UserConfig{withHook("slow@example.com")}}
	checks := &mockCheckRepo{fn: func(ctx context.Context, email string) (*check_repo.Reply, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	res, err := NewService(users, checks, Options{Timeout: 10 * time.Millisecond}).Run(context.Background(), "1h")
	require.NoError(t, err)
	require.Len(t, res.Details, 1)
	assert.Equal(t, StatusError, res.Details[0].Status())
	assert.Equal(t, 1, res.Failed)
}

func TestOutcomeJSON(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Skipped{UserEmail: "a@x.com", Reason: SkipReasonNoWebhook}, `{"email":"a@x.com","status":"skipped","reason":"No Slack webhook configured"}`},
		{Succeeded{UserEmail: "b@x.com", EmailCount: 3}, `{"email":"b@x.com","status":"success","emailCount":3}`},
		{Failed{UserEmail: "c@x.com", Error: "User not found"}, `{"email":"c@x.com","status":"failed","error":"User not found"}`},
		{Errored{UserEmail: "d@x.com", Error: "timeout"}, `{"email":"d@x.com","status":"error","error":"timeout"}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome.Status()), func(t *testing.T) {
			b, err := json.Marshal(tt.outcome)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}
