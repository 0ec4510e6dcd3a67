package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yaronsela1/productivity-bot/internal/logging"
	"github.com/yaronsela1/productivity-bot/internal/service/dispatch"
)

// HandleCron runs the fan-out for ?interval=. Per-user failures are reported
// in the body and never change the status code.
func (h *APIHandler) HandleCron(w http.ResponseWriter, r *http.Request) {
	if !h.triggerAllowed(r) {
		slog.Warn("rejected unauthenticated trigger", "remote_addr", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	interval := r.URL.Query().Get("interval")

	// a disconnecting caller must not abort checks already issued
	ctx := context.WithoutCancel(r.Context())

	res, err := h.dispatcher.Run(ctx, interval)
	if err != nil {
		if errors.Is(err, dispatch.ErrInvalidInterval) {
			writeError(w, http.StatusBadRequest, "Valid interval is required (1h, 4h, or 1d)")
			return
		}
		slog.Error("dispatch failed", "interval", interval, logging.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, res)
}
