package check

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	check_domain "github.com/yaronsela1/productivity-bot/internal/domain/check"
)

type checkRepo struct {
	endpoint   string
	secret     string
	httpClient *http.Client
}

var _ check_domain.CheckRepo = (*checkRepo)(nil)

// NewCheckRepo returns a client for POST <baseURL>/api/check. secret is sent
// on every request when non-empty.
func NewCheckRepo(baseURL, secret string, httpClient *http.Client) check_domain.CheckRepo {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &checkRepo{
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/check",
		secret:     secret,
		httpClient: httpClient,
	}
}

type checkResponse struct {
	Success      bool   `json:"success"`
	EmailCount   int    `json:"emailCount"`
	MentionCount int    `json:"mentionCount"`
	Error        string `json:"error"`
}

func (r *checkRepo) RequestCheck(ctx context.Context, email string) (*check_domain.Reply, error) {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to encode check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.secret != "" {
		req.Header.Set(check_domain.SecretHeader, r.secret)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call check endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read check response: %w", err)
	}

	var decoded checkResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode check response (status %d): %w", resp.StatusCode, err)
	}

	return &check_domain.Reply{
		StatusCode:   resp.StatusCode,
		Success:      decoded.Success,
		EmailCount:   decoded.EmailCount,
		MentionCount: decoded.MentionCount,
		Error:        decoded.Error,
	}, nil
}
