package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	gmail_domain "github.com/yaronsela1/productivity-bot/internal/domain/gmail"
)

func TestLookback(t *testing.T) {
	tests := []struct {
		since string
		want  time.Duration
	}{
		{"1d", 24 * time.Hour},
		{"4h", 4 * time.Hour},
		{"1h", time.Hour},
		{"2h", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.since, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookback(tt.since))
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	now := time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		whitelist []string
		since     string
		want      string
	}{
		{"empty whitelist", nil, "1h", "is:unread after:2024-03-10"},
		{"daily crosses midnight", nil, "1d", "is:unread after:2024-03-09"},
		{"four hours crosses midnight", nil, "4h", "is:unread after:2024-03-09"},
		{"unknown since uses now", nil, "2h", "is:unread after:2024-03-10"},
		{
			"single sender",
			[]string{"boss@x.com"},
			"1h",
			"is:unread after:2024-03-10 AND (from:boss@x.com)",
		},
		{
			"several senders",
			[]string{"a@x.com", "b@y.com"},
			"1d",
			"is:unread after:2024-03-09 AND (from:a@x.com OR from:b@y.com)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSearchQuery(tt.whitelist, tt.since, now))
		})
	}
}

func TestBuildSearchQuery_UsesUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 2024-03-10 08:00 in UTC+9 is 2024-03-09 23:00 UTC
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, loc)
	assert.Equal(t, "is:unread after:2024-03-09", BuildSearchQuery(nil, "1h", now))
}

type fakeGmail struct {
	ids         []string
	headers     map[string]map[string]string
	failList    bool
	failDetail  map[string]bool
	gotQuery    string
	gotAuth     string
	detailCalls atomic.Int32
	mu          sync.Mutex
}

func (f *fakeGmail) lastRequest() (query, auth string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotQuery, f.gotAuth
}

func (f *fakeGmail) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.gotQuery = r.URL.Query().Get("q")
		f.gotAuth = r.Header.Get("Authorization")
		f.mu.Unlock()

		if f.failList {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"invalid credentials"}}`))
			return
		}

		msgs := make([]map[string]string, 0, len(f.ids))
		for _, id := range f.ids {
			msgs = append(msgs, map[string]string{"id": id, "threadId": "t-" + id})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": msgs})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		f.detailCalls.Add(1)
		id := strings.TrimPrefix(r.URL.Path, "/gmail/v1/users/me/messages/")
		if f.failDetail[id] {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
			return
		}

		headers := make([]map[string]string, 0)
		for name, value := range f.headers[id] {
			headers = append(headers, map[string]string{"name": name, "value": value})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      id,
			"snippet": "snippet " + id,
			"payload": map[string]any{"headers": headers},
		})
	})
	return mux
}

func newTestRepo(t *testing.T, f *fakeGmail) gmail_domain.GmailRepo {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewGmailRepo(srv.Client(), option.WithEndpoint(srv.URL+"/"))
}

func TestGetImportantMessages(t *testing.T) {
	f := &fakeGmail{
		ids: []string{"m1", "m2"},
		headers: map[string]map[string]string{
			"m1": {"From": "Boss <boss@x.com>", "Subject": "Quarterly", "Date": "Sun, 10 Mar 2024 01:00:00 +0000"},
			"m2": {"From": "a@x.com"},
		},
	}
	repo := newTestRepo(t, f)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	msgs, err := repo.GetImportantMessages(context.Background(), &oauth2.Token{AccessToken: "tok"}, gmail_domain.Query{
		Whitelist: []string{"boss@x.com", "a@x.com"},
		Since:     "1d",
		Now:       now,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	query, auth := f.lastRequest()
	assert.Equal(t, "is:unread after:2024-03-09 AND (from:boss@x.com OR from:a@x.com)", query)
	assert.Equal(t, "Bearer tok", auth)

	assert.Equal(t, gmail_domain.Message{
		ID:      "m1",
		From:    "Boss <boss@x.com>",
		Subject: "Quarterly",
		Date:    "Sun, 10 Mar 2024 01:00:00 +0000",
		Snippet: "snippet m1",
		URL:     "https://mail.google.com/mail/u/0/#inbox/m1",
	}, msgs[0])

	assert.Equal(t, "m2", msgs[1].ID)
	assert.Equal(t, "(No subject)", msgs[1].Subject)
	assert.Equal(t, "", msgs[1].Date)
}

func TestGetImportantMessages_CapsAtTen(t *testing.T) {
	f := &fakeGmail{}
	for i := 0; i < 15; i++ {
		f.ids = append(f.ids, fmt.Sprintf("m%02d", i))
	}
	repo := newTestRepo(t, f)

	msgs, err := repo.GetImportantMessages(context.Background(), &oauth2.Token{AccessToken: "tok"}, gmail_domain.Query{Since: "1h"})
	require.NoError(t, err)
	require.Len(t, msgs, gmail_domain.MaxMessages)
	assert.Equal(t, int32(gmail_domain.MaxMessages), f.detailCalls.Load())

	// search order is preserved
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%02d", i), m.ID)
	}
}

func TestGetImportantMessages_NoResults(t *testing.T) {
	repo := newTestRepo(t, &fakeGmail{})

	msgs, err := repo.GetImportantMessages(context.Background(), &oauth2.Token{AccessToken: "tok"}, gmail_domain.Query{Since: "1h"})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestGetImportantMessages_SearchFailure(t *testing.T) {
	repo := newTestRepo(t, &fakeGmail{failList: true})

	msgs, err := repo.GetImportantMessages(context.Background(), &oauth2.Token{AccessToken: "expired"}, gmail_domain.Query{Since: "1h"})
	require.Error(t, err)
	assert.Nil(t, msgs)
}

func TestGetImportantMessages_DetailFailure(t *testing.T) {
	f := &fakeGmail{
		ids:        []string{"m1", "m2", "m3"},
		failDetail: map[string]bool{"m2": true},
	}
	repo := newTestRepo(t, f)

	msgs, err := repo.GetImportantMessages(context.Background(), &oauth2.Token{AccessToken: "tok"}, gmail_domain.Query{Since: "1h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m2")
	assert.Nil(t, msgs)
}

func TestGetImportantMessages_EmptyToken(t *testing.T) {
	repo := NewGmailRepo(nil)

	_, err := repo.GetImportantMessages(context.Background(), &oauth2.Token{}, gmail_domain.Query{})
	assert.Error(t, err)
}
