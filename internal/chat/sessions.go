package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Session is one conversation. Respond calls on the same session are
// serialized so concurrent clients cannot interleave a session's history.
type Session struct {
	ID      string
	History *History

	mu sync.Mutex
}

// Respond runs the assistant for one user message within this session.
func (s *Session) Respond(ctx context.Context, a *Assistant, input string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return a.Respond(ctx, s.History, input)
}

// SessionStore tracks active conversations by ID.
type SessionStore struct {
	mu       sync.RWMutex
	window   int
	sessions map[string]*Session
}

// NewSessionStore creates a store whose sessions keep the given history
// window.
func NewSessionStore(window int) *SessionStore {
	return &SessionStore{
		window:   window,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session with the given ID, creating it when
// missing. An empty ID creates a session under a fresh UUID.
func (st *SessionStore) GetOrCreate(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := &Session{ID: id, History: NewHistory(st.window)}
	st.sessions[id] = s
	return s
}

// Get returns the session with the given ID if it exists.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session and its history.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len reports the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
