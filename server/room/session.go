package room

import (
	"sync"
	"time"

	"ahadchat/server/model"
	"ahadchat/server/store"
)

// Session is one client's state. A session starts logged out, and keeps its
// store across logins so a per-session memory store survives a logout.
type Session struct {
	ID string

	mu           sync.Mutex
	state        model.State
	userID       string
	displayName  string
	isAdmin      bool
	confirmClear bool
	lastRefresh  time.Time
	lastSeen     time.Time
	store        store.Store
}

func newSession(id string, st store.Store, now time.Time) *Session {
	return &Session{
		ID:       id,
		state:    model.StateLoggedOut,
		lastSeen: now,
		store:    st,
	}
}

func (s *Session) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// ConfirmClearPending reports whether the next clear request will run.
func (s *Session) ConfirmClearPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmClear
}

// clear drops the identity. Callers hold s.mu.
func (s *Session) clear() {
	s.state = model.StateLoggedOut
	s.userID = ""
	s.displayName = ""
	s.isAdmin = false
	s.confirmClear = false
	s.lastRefresh = time.Time{}
}

func (s *Session) profile() *model.Profile {
	if s.state != model.StateLoggedIn {
		return nil
	}
	return &model.Profile{ID: s.userID, DisplayName: s.displayName, IsAdmin: s.isAdmin}
}
