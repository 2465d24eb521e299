package router

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/slidedeck/pkg/core"
	"github.com/gabrielmiguelok/slidedeck/pkg/transport"
)

// LiveSession binds one mounted component to its WebSocket connection.
type LiveSession struct {
	// ID is the unique session identifier
	ID string

	// SocketID is the ID of the associated socket
	SocketID string

	// Component is the live component instance
	Component core.Component

	// Socket is the component facing end of the connection
	Socket *core.Socket

	// Transport is the underlying WebSocket transport
	Transport *transport.WebSocketTransport

	// Params are the URL query parameters
	Params core.Params

	// Session holds per-user data taken from the request
	Session core.Session

	// RemoteIP is the client address the connection counts against
	RemoteIP string

	// Topic is the channel topic
	Topic string

	// CreatedAt is when the session was created
	CreatedAt time.Time

	joinRef      string
	mounted      bool
	lastRender   uint64
	lastActivity time.Time
	mu           sync.RWMutex
}

// NewLiveSession creates a new live session.
func NewLiveSession(socketID string, comp core.Component, params core.Params, session core.Session) *LiveSession {
	now := time.Now()
	return &LiveSession{
		ID:           uuid.NewString(),
		SocketID:     socketID,
		Component:    comp,
		Params:       params,
		Session:      session,
		Topic:        "lv:" + socketID,
		CreatedAt:    now,
		lastActivity: now,
	}
}

// UpdateActivity refreshes the last activity timestamp.
func (s *LiveSession) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns the last activity timestamp.
func (s *LiveSession) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// SetMounted marks the component as mounted.
func (s *LiveSession) SetMounted(mounted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = mounted
}

// IsMounted reports whether the component was mounted.
func (s *LiveSession) IsMounted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mounted
}

// SetJoinRef stores the join reference.
func (s *LiveSession) SetJoinRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinRef = ref
}

// JoinRef returns the join reference.
func (s *LiveSession) JoinRef() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinRef
}

// swapRender records the hash of the latest render and reports whether it
// differs from the previous one.
func (s *LiveSession) swapRender(hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.lastRender != hash
	s.lastRender = hash
	return changed
}

// SessionManager tracks every active live session.
type SessionManager struct {
	sessions    map[string]*LiveSession
	maxSessions int
	sessionTTL  time.Duration
	mu          sync.RWMutex
}

// NewSessionManager creates a session manager. maxSessions of 0 means no limit.
func NewSessionManager(maxSessions int, sessionTTL time.Duration) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*LiveSession),
		maxSessions: maxSessions,
		sessionTTL:  sessionTTL,
	}
}

// Create creates and registers a new live session. It fails with
// ErrTooManySockets once the limit is reached; running sessions are never
// displaced.
func (m *SessionManager) Create(socketID string, comp core.Component, params core.Params, session core.Session) (*LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySockets
	}

	s := NewLiveSession(socketID, comp, params, session)
	m.sessions[s.ID] = s
	return s, nil
}

// Get looks up a session by ID.
func (m *SessionManager) Get(sessionID string) (*LiveSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Remove drops a session.
func (m *SessionManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
}

// Count returns the number of active sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expired returns the sessions idle for longer than the TTL.
func (m *SessionManager) Expired() []*LiveSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.sessionTTL <= 0 {
		return nil
	}

	now := time.Now()
	var out []*LiveSession
	for _, s := range m.sessions {
		if now.Sub(s.LastActivity()) > m.sessionTTL {
			out = append(out, s)
		}
	}
	return out
}

// All returns every active session.
func (m *SessionManager) All() []*LiveSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*LiveSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
