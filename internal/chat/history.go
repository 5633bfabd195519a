// Package chat implements the conversation assistant: it decides between
// answering directly and retrieving from the catalog, and keeps bounded
// per-session history.
package chat

import "sync"

// DefaultHistoryWindow is the number of most recent exchanges kept per
// session.
const DefaultHistoryWindow = 5

// Turn is one user/assistant exchange.
type Turn struct {
	User string
	Bot  string
}

// History is a bounded conversation window. Appends are atomic: a user
// message and its reply always enter together, so the window never holds a
// question without its answer.
type History struct {
	mu     sync.Mutex
	window int
	turns  []Turn
}

// NewHistory creates a history keeping the last window exchanges.
func NewHistory(window int) *History {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &History{window: window}
}

// Append records a completed exchange, evicting the oldest one when the
// window is full.
func (h *History) Append(user, bot string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, Turn{User: user, Bot: bot})
	if len(h.turns) > h.window {
		h.turns = h.turns[len(h.turns)-h.window:]
	}
}

// Turns returns a copy of the recorded exchanges, oldest first.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len reports the number of recorded exchanges.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Clear drops all recorded exchanges.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
