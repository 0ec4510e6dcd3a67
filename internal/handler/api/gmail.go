package api

import (
	"errors"
	"log/slog"
	"net/http"

	gmail_repo "github.com/yaronsela1/productivity-bot/internal/domain/gmail"
	"github.com/yaronsela1/productivity-bot/internal/logging"
	"github.com/yaronsela1/productivity-bot/internal/service/notification"
	"golang.org/x/oauth2"
)

type checkGmailResponse struct {
	Success    bool                 `json:"success"`
	EmailCount int                  `json:"emailCount"`
	Emails     []gmail_repo.Message `json:"emails"`
	Whitelist  []string             `json:"whitelist"`
}

// HandleCheckGmail returns what a check would find for the caller over the
// last day without posting to Slack.
func (h *APIHandler) HandleCheckGmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var (
		email string
		token *oauth2.Token
	)
	if sess, ok := h.sessionFrom(r); ok {
		email, token = sess.Email, sess.Token
	} else {
		email = r.URL.Query().Get("email")
		t, err := h.userToken(r, email, true)
		if err != nil {
			slog.Error("failed to resolve token", logging.UserHash(email), logging.Err(err))
			writeErrorDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
			return
		}
		token = t
	}

	res, err := h.notifications.ProbeGmail(r.Context(), email, token)
	if err != nil {
		switch {
		case errors.Is(err, notification.ErrNotAuthenticated):
			writeError(w, http.StatusUnauthorized, "Not authenticated")
		case errors.Is(err, notification.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "User email not found in session")
		default:
			slog.Error("gmail probe failed", logging.UserHash(email), logging.Err(err))
			writeErrorDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, checkGmailResponse{
		Success:    true,
		EmailCount: len(res.Emails),
		Emails:     res.Emails,
		Whitelist:  res.Whitelist,
	})
}
