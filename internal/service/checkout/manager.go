package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

const sessionTTL = 2 * time.Hour

type sessionEntry struct {
	session   *Session
	expiresAt time.Time
}

// Manager holds live checkout sessions keyed by id. Sessions are created
// per checkout attempt and expire quietly after inactivity; there is no
// ambient shared state.
type Manager struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]sessionEntry
}

func NewManager() *Manager {
	return &Manager{ttl: sessionTTL, sessions: make(map[string]sessionEntry)}
}

// Create starts a new session in the Shipping step. Expired entries are
// swept on every create; abandoned sessions never outlive the next one.
func (m *Manager) Create(identityID string) *Session {
	sess := &Session{
		ID:         uuid.New().String(),
		IdentityID: identityID,
		state:      StateShipping,
	}
	now := time.Now()
	m.mu.Lock()
	for id, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, id)
		}
	}
	m.sessions[sess.ID] = sessionEntry{session: sess, expiresAt: now.Add(m.ttl)}
	m.mu.Unlock()
	return sess
}

// Get returns a live session or ErrNotFound once it has expired.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	return entry.session, nil
}

// Release drops a finished session.
func (m *Manager) Release(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
