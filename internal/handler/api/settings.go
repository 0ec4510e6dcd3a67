package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	user_repo "github.com/yaronsela1/productivity-bot/internal/domain/user"
	"github.com/yaronsela1/productivity-bot/internal/logging"
)

type settingsResponse struct {
	Email         string     `json:"email"`
	Whitelist     []string   `json:"whitelist"`
	CheckInterval string     `json:"checkInterval"`
	SlackWebhook  *string    `json:"slackWebhook,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Absent fields are left untouched by the save.
type settingsRequest struct {
	Whitelist     *[]string `json:"whitelist"`
	CheckInterval *string   `json:"checkInterval"`
	SlackWebhook  *string   `json:"slackWebhook"`
}

func (h *APIHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	email, ok := h.identity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getSettings(w, r, email)
	case http.MethodPost, http.MethodPut:
		h.saveSettings(w, r, email)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *APIHandler) getSettings(w http.ResponseWriter, r *http.Request, email string) {
	cfg, err := h.accounts.GetSettings(r.Context(), email)
	if err != nil {
		slog.Error("failed to load settings", logging.UserHash(email), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := settingsResponse{
		Email:         cfg.Email,
		Whitelist:     cfg.Whitelist,
		CheckInterval: string(cfg.CheckInterval),
		SlackWebhook:  cfg.SlackWebhook,
	}
	if !cfg.UpdatedAt.IsZero() {
		updated := cfg.UpdatedAt.UTC()
		resp.UpdatedAt = &updated
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) saveSettings(w http.ResponseWriter, r *http.Request, email string) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := user_repo.UserConfigPatch{
		Whitelist:    req.Whitelist,
		SlackWebhook: req.SlackWebhook,
	}
	if req.CheckInterval != nil {
		interval := user_repo.Interval(*req.CheckInterval)
		patch.CheckInterval = &interval
	}

	if err := h.accounts.SaveSettings(r.Context(), email, patch); err != nil {
		if errors.Is(err, user_repo.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to save settings", logging.UserHash(email), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
