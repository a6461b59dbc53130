package session

import (
	"sync"

	"StockLens/internal/model"

	"github.com/google/uuid"
)

// EventType describes an auth state change.
type EventType string

const (
	SignedIn  EventType = "signed_in"
	SignedOut EventType = "signed_out"
)

// Event is delivered to subscribers on every login and logout.
type Event struct {
	Type   EventType
	UserID string
}

// Manager keeps bearer tokens in memory. Tokens do not survive a restart.
type Manager struct {
	mu      sync.RWMutex
	tokens  map[string]string // token -> user id
	subs    map[int]func(Event)
	nextSub int
}

func NewManager() *Manager {
	return &Manager{
		tokens: make(map[string]string),
		subs:   make(map[int]func(Event)),
	}
}

// Login issues a new token for userID.
func (m *Manager) Login(userID string) (string, error) {
	if userID == "" {
		return "", model.ErrValidation
	}
	token := uuid.NewString()
	m.mu.Lock()
	m.tokens[token] = userID
	m.mu.Unlock()
	m.publish(Event{Type: SignedIn, UserID: userID})
	return token, nil
}

// Logout revokes token. Unknown tokens return model.ErrNotAuthenticated.
func (m *Manager) Logout(token string) error {
	m.mu.Lock()
	userID, ok := m.tokens[token]
	delete(m.tokens, token)
	m.mu.Unlock()
	if !ok {
		return model.ErrNotAuthenticated
	}
	m.publish(Event{Type: SignedOut, UserID: userID})
	return nil
}

// Lookup resolves token to its user id.
func (m *Manager) Lookup(token string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userID, ok := m.tokens[token]
	return userID, ok
}

// Subscribe registers fn for auth events. Calling the returned func
// unregisters it; calling it more than once is a no-op.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}
