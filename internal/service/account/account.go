package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	google_repo "github.com/yaronsela1/productivity-bot/internal/domain/google"
	token_repo "github.com/yaronsela1/productivity-bot/internal/domain/token"
	user_repo "github.com/yaronsela1/productivity-bot/internal/domain/user"
	"github.com/yaronsela1/productivity-bot/internal/logging"
	"github.com/yaronsela1/productivity-bot/internal/service/session"
	"golang.org/x/oauth2"
)

// stateTTL bounds how long a sign-in may take between redirect and callback.
const stateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("invalid or expired oauth state")

type Service struct {
	authRepo  google_repo.AuthRepo
	tokenRepo token_repo.TokenRepo
	userRepo  user_repo.UserRepo
	sessions  *session.Store
	now       func() time.Time

	mu          sync.Mutex
	pendingAuth map[string]time.Time
}

func NewService(authRepo google_repo.AuthRepo, tokenRepo token_repo.TokenRepo, userRepo user_repo.UserRepo, sessions *session.Store) *Service {
	return &Service{
		authRepo:    authRepo,
		tokenRepo:   tokenRepo,
		userRepo:    userRepo,
		sessions:    sessions,
		now:         time.Now,
		pendingAuth: make(map[string]time.Time),
	}
}

// BeginSignIn registers a single-use state and returns the consent URL.
func (s *Service) BeginSignIn() string {
	state := uuid.NewString()

	s.mu.Lock()
	now := s.now()
	for st, issued := range s.pendingAuth {
		if now.Sub(issued) > stateTTL {
			delete(s.pendingAuth, st)
		}
	}
	s.pendingAuth[state] = now
	s.mu.Unlock()

	return s.authRepo.GetAuthURL(state)
}

func (s *Service) takeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.pendingAuth[state]
	if !ok {
		return false
	}
	delete(s.pendingAuth, state)
	return s.now().Sub(issued) <= stateTTL
}

// CompleteSignIn exchanges the code, stores the token for the signed-in
// address and opens a session.
func (s *Service) CompleteSignIn(ctx context.Context, state, code string) (*session.Session, error) {
	if !s.takeState(state) {
		return nil, ErrInvalidState
	}

	token, err := s.authRepo.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	email, err := s.authRepo.GetUserEmail(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get user email: %w", err)
	}

	if err := s.tokenRepo.SaveToken(ctx, email, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	sess := s.sessions.Create(email, token)
	slog.Info("sign-in completed", logging.UserHash(email))
	return sess, nil
}

func (s *Service) SignOut(sessionID string) {
	s.sessions.Delete(sessionID)
}

func (s *Service) Session(sessionID string) (*session.Session, bool) {
	return s.sessions.Get(sessionID)
}

// StoredToken returns the token saved at the user's last sign-in, or nil.
func (s *Service) StoredToken(ctx context.Context, email string) (*oauth2.Token, error) {
	token, err := s.tokenRepo.GetToken(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get stored token: %w", err)
	}
	return token, nil
}

// GetSettings returns the stored settings, or defaults when none were saved.
func (s *Service) GetSettings(ctx context.Context, email string) (*user_repo.UserConfig, error) {
	u, err := s.userRepo.GetUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if u == nil {
		return &user_repo.UserConfig{
			Email:         email,
			Whitelist:     []string{},
			CheckInterval: user_repo.DefaultInterval,
		}, nil
	}
	if u.Whitelist == nil {
		u.Whitelist = []string{}
	}
	return u, nil
}

// SaveSettings validates and merge-writes patch. Fields left nil are kept.
func (s *Service) SaveSettings(ctx context.Context, email string, patch user_repo.UserConfigPatch) error {
	if err := patch.Normalize(); err != nil {
		return err
	}
	patch.UpdatedAt = s.now()

	if err := s.userRepo.SaveUser(ctx, email, patch); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	slog.Info("settings saved", logging.UserHash(email))
	return nil
}
