package room

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ahadchat/server/model"
)

// Manager tracks sessions by id.
type Manager struct {
	room     *Room
	Sessions map[string]*Session
	mu       sync.RWMutex
}

func NewManager(room *Room) *Manager {
	return &Manager{
		room:     room,
		Sessions: make(map[string]*Session),
	}
}

func (m *Manager) Room() *Room {
	return m.room
}

// Get returns the session with the given id, if any.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.Sessions[id]
	return sess, ok
}

// GetOrCreate returns the session for id, or starts a new one with a fresh
// id when id is empty or unknown.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.Sessions[id]; ok && id != "" {
		return sess
	}

	sess := m.room.NewSession(uuid.NewString())
	m.Sessions[sess.ID] = sess
	return sess
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Sessions, id)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Sessions)
}

// Sweep drops logged-out sessions unseen for longer than idle and returns how
// many were removed. Logged-in sessions are never swept.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.room.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.Sessions {
		sess.mu.Lock()
		stale := sess.state != model.StateLoggedIn && sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			delete(m.Sessions, id)
			removed++
		}
	}
	return removed
}
