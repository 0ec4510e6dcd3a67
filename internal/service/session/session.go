package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// CookieName carries the session id between sign-in and API calls.
const CookieName = "session_id"

type Session struct {
	ID        string
	Email     string
	Token     *oauth2.Token
	ExpiresAt time.Time
}

// Store keeps signed-in sessions in memory. Sessions do not survive a restart.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *Store) Create(email string, token *oauth2.Token) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()

	sess := &Session{
		ID:        uuid.NewString(),
		Email:     email,
		Token:     token,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.sessions[sess.ID] = sess

	cp := *sess
	return &cp
}

// Get returns a copy of the session. Expired sessions are removed.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, id)
		return nil, false
	}

	cp := *sess
	return &cp, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) purgeLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}
