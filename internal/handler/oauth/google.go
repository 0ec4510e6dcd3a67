package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yaronsela1/productivity-bot/internal/logging"
	"github.com/yaronsela1/productivity-bot/internal/service/session"
)

const (
	htmlError = `<html><body><h1>❌ Sign-in failed</h1><p><a href="/auth/google/login">Try again</a></p></body></html>`

	LoginPath    = "/auth/google/login"
	CallbackPath = "/auth/google/callback"
	LogoutPath   = "/auth/logout"
)

type SignInService interface {
	BeginSignIn() string
	CompleteSignIn(ctx context.Context, state, code string) (*session.Session, error)
	SignOut(sessionID string)
}

type GoogleOAuthHandler struct {
	accounts     SignInService
	secureCookie bool
}

// NewGoogleOAuthHandler serves the Google sign-in flow. secureCookie marks
// the session cookie Secure and should be set when served over https.
func NewGoogleOAuthHandler(accounts SignInService, secureCookie bool) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		accounts:     accounts,
		secureCookie: secureCookie,
	}
}

func (h *GoogleOAuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc(LoginPath, h.HandleLogin)
	mux.HandleFunc(CallbackPath, h.HandleCallback)
	mux.HandleFunc(LogoutPath, h.HandleLogout)
}

func (h *GoogleOAuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.accounts.BeginSignIn(), http.StatusFound)
}

func (h *GoogleOAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		slog.Warn("google sign-in denied", "reason", errParam)
		writeHTMLError(w, http.StatusUnauthorized)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" || state == "" {
		slog.Error("missing code or state", "has_code", code != "", "has_state", state != "")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sess, err := h.accounts.CompleteSignIn(r.Context(), state, code)
	if err != nil {
		slog.Error("failed to complete Google sign-in", logging.Err(err))
		writeHTMLError(w, http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *GoogleOAuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
		h.accounts.SignOut(c.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func writeHTMLError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, htmlError)
}
