package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yaronsela1/productivity-bot/internal/domain/check"
	user_repo "github.com/yaronsela1/productivity-bot/internal/domain/user"
	"github.com/yaronsela1/productivity-bot/internal/service/dispatch"
	"github.com/yaronsela1/productivity-bot/internal/service/notification"
	"github.com/yaronsela1/productivity-bot/internal/service/session"
	"golang.org/x/oauth2"
)

type NotificationService interface {
	Check(ctx context.Context, email string, token *oauth2.Token) (*notification.CheckResult, error)
	ProbeGmail(ctx context.Context, email string, token *oauth2.Token) (*notification.ProbeResult, error)
	ForwardToSlack(ctx context.Context, webhookURL string, blocks json.RawMessage) error
}

type Dispatcher interface {
	Run(ctx context.Context, interval string) (*dispatch.Result, error)
}

type AccountService interface {
	Session(sessionID string) (*session.Session, bool)
	StoredToken(ctx context.Context, email string) (*oauth2.Token, error)
	GetSettings(ctx context.Context, email string) (*user_repo.UserConfig, error)
	SaveSettings(ctx context.Context, email string, patch user_repo.UserConfigPatch) error
}

type APIHandler struct {
	notifications NotificationService
	dispatcher    Dispatcher
	accounts      AccountService
	cronSecret    string
}

// NewAPIHandler wires the JSON endpoints. An empty cronSecret leaves the
// trigger endpoint open.
func NewAPIHandler(notifications NotificationService, dispatcher Dispatcher, accounts AccountService, cronSecret string) *APIHandler {
	return &APIHandler{
		notifications: notifications,
		dispatcher:    dispatcher,
		accounts:      accounts,
		cronSecret:    cronSecret,
	}
}

// Register mounts the endpoints on mux. wrap is applied to each handler with
// its route path.
func (h *APIHandler) Register(mux *http.ServeMux, wrap func(path string, next http.Handler) http.Handler) {
	routes := map[string]http.HandlerFunc{
		"/api/cron":          h.HandleCron,
		"/api/check":         h.HandleCheck,
		"/api/check-gmail":   h.HandleCheckGmail,
		"/api/send-to-slack": h.HandleSendToSlack,
		"/api/settings":      h.HandleSettings,
	}
	for path, fn := range routes {
		var handler http.Handler = fn
		if wrap != nil {
			handler = wrap(path, handler)
		}
		mux.Handle(path, handler)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// presentsSecret reports whether the request carries the configured trigger
// secret. It is always false when no secret is configured.
func (h *APIHandler) presentsSecret(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	if v := r.Header.Get(check.SecretHeader); v != "" && secretsEqual(v, h.cronSecret) {
		return true
	}
	if v := bearerToken(r); v != "" && secretsEqual(v, h.cronSecret) {
		return true
	}
	return false
}

// triggerAllowed gates the scheduled trigger. With no secret configured the
// trigger is open.
func (h *APIHandler) triggerAllowed(r *http.Request) bool {
	return h.cronSecret == "" || h.presentsSecret(r)
}

func (h *APIHandler) sessionFrom(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(session.CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	return h.accounts.Session(c.Value)
}

// userToken picks the Gmail token for email: the stored token for trusted
// callers, then a bearer token when allowBearer is set, then the caller's own
// session. It returns nil when none applies.
func (h *APIHandler) userToken(r *http.Request, email string, allowBearer bool) (*oauth2.Token, error) {
	if h.presentsSecret(r) {
		return h.accounts.StoredToken(r.Context(), email)
	}
	if bt := bearerToken(r); bt != "" && allowBearer {
		return &oauth2.Token{AccessToken: bt, TokenType: "Bearer"}, nil
	}
	if sess, ok := h.sessionFrom(r); ok && sess.Email == email {
		return sess.Token, nil
	}
	return nil, nil
}

// identity resolves which user's settings a request may touch: the session
// user, or any email named by a trusted caller.
func (h *APIHandler) identity(r *http.Request) (string, bool) {
	if sess, ok := h.sessionFrom(r); ok {
		return sess.Email, true
	}
	if h.presentsSecret(r) {
		if email := r.URL.Query().Get("email"); email != "" {
			return email, true
		}
	}
	return "", false
}
