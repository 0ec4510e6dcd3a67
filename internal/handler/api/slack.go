package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	slack_repo "github.com/yaronsela1/productivity-bot/internal/domain/slack"
	"github.com/yaronsela1/productivity-bot/internal/logging"
	"github.com/yaronsela1/productivity-bot/internal/service/notification"
)

type sendToSlackRequest struct {
	WebhookURL string          `json:"webhookUrl"`
	Blocks     json.RawMessage `json:"blocks"`
}

// HandleSendToSlack forwards caller-built blocks to a webhook and echoes the
// upstream status on failure.
func (h *APIHandler) HandleSendToSlack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req sendToSlackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing webhook URL or message blocks")
		return
	}

	err := h.notifications.ForwardToSlack(r.Context(), req.WebhookURL, req.Blocks)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	var fwdErr *slack_repo.ForwardError
	switch {
	case errors.Is(err, notification.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Missing webhook URL or message blocks")
	case errors.As(err, &fwdErr):
		writeErrorDetails(w, fwdErr.StatusCode, fwdErr.Error(), fwdErr.Body)
	default:
		slog.Error("failed to forward to slack", logging.Err(err))
		writeErrorDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
