package client

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/core/verification"
)

// SessionKey is the storage key of the persisted session.
const SessionKey = "tams_session"

// Session holds the signed in user and its token. The zero value is signed out and not persisted.
type Session struct {
	mu      sync.RWMutex
	storage verification.Storage
	token   string
	user    *user.User
}

type sessionData struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// NewSession returns a signed out session persisted to storage (may be nil).
func NewSession(storage verification.Storage) *Session {
	return &Session{storage: storage}
}

// Initialize restores the persisted session. A missing or unreadable session leaves it signed out.
func (s *Session) Initialize() {
	if s.storage == nil {
		return
	}
	raw, ok, err := s.storage.GetItem(SessionKey)
	if err != nil || !ok {
		return
	}
	var data sessionData
	if err = json.Unmarshal([]byte(raw), &data); err != nil || data.Token == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = data.Token
	s.user = data.User
}

// Update stores a new token, and the user when usr is not nil.
func (s *Session) Update(token string, usr *user.User) error {
	s.mu.Lock()
	s.token = token
	if usr != nil {
		u := *usr
		s.user = &u
	}
	data := sessionData{Token: s.token, User: s.user}
	s.mu.Unlock()

	if s.storage == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(s.storage.SetItem(SessionKey, string(raw)), "saving session")
}

// SignOut forgets the token and the user.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if s.storage == nil {
		return nil
	}
	return errors.Wrap(s.storage.SetItem(SessionKey, ""), "clearing session")
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed in user, nil when signed out.
func (s *Session) User() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
