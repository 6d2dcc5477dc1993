package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks open sessions for the HTTP layer. One session per
// login; closing removes it.
type Manager struct {
	mu       sync.Mutex
	deps     Deps
	sessions map[uuid.UUID]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (m *Manager) Open(ctx context.Context, operatorID, name, contact string) *Session {
	s := Open(ctx, m.deps, operatorID, name, contact)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Close(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}
