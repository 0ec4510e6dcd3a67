package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yaronsela1/productivity-bot/internal/logging"
	"github.com/yaronsela1/productivity-bot/internal/service/notification"
)

type checkRequest struct {
	Email string `json:"email"`
}

type checkResponse struct {
	Success      bool `json:"success"`
	EmailCount   int  `json:"emailCount"`
	MentionCount int  `json:"mentionCount"`
}

// HandleCheck runs the summary for one user. It is called by the dispatcher
// with the trigger secret, or by a signed-in user for themselves.
func (h *APIHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.TrimSpace(req.Email)

	// A bearer token names no mailbox owner, so it could post one user's mail
	// to another user's webhook. Only deployments without a trigger secret
	// accept it here.
	token, err := h.userToken(r, email, h.cronSecret == "")
	if err != nil {
		slog.Error("failed to resolve token", logging.UserHash(email), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	res, err := h.notifications.Check(r.Context(), email, token)
	if err != nil {
		writeCheckError(w, email, err)
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{
		Success:      true,
		EmailCount:   res.EmailCount,
		MentionCount: res.MentionCount,
	})
}

func writeCheckError(w http.ResponseWriter, email string, err error) {
	var upErr *notification.UpstreamError

	switch {
	case errors.Is(err, notification.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Email is required")
	case errors.Is(err, notification.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, notification.ErrWebhookMissing):
		writeError(w, http.StatusBadRequest, "Slack webhook not configured")
	case errors.Is(err, notification.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "Not authenticated")
	case errors.As(err, &upErr) && upErr.Service == notification.ServiceSlack:
		slog.Error("slack post failed", logging.UserHash(email), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to send Slack message")
	case errors.As(err, &upErr) && upErr.Service == notification.ServiceGmail:
		slog.Error("gmail query failed", logging.UserHash(email), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch emails")
	default:
		slog.Error("check failed", logging.UserHash(email), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
