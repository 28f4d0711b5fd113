// Package session tracks per-conversation history in memory.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// exchange is one user/assistant turn pair.
type exchange struct {
	user      string
	assistant string
}

// Manager stores conversation history keyed by session ID. Each session
// keeps at most maxHistory exchanges; older ones fall off the front.
// Safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	maxHistory int
	sessions   map[string][]exchange
}

// NewManager creates a session manager keeping maxHistory exchanges per
// session. Non-positive values disable history.
func NewManager(maxHistory int) *Manager {
	return &Manager{
		maxHistory: maxHistory,
		sessions:   make(map[string][]exchange),
	}
}

// Create starts a new empty session and returns its ID.
func (m *Manager) Create() string {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = nil
	return id
}

// AddExchange appends one user/assistant pair to the session, creating
// the session if the ID is unknown, and evicts the oldest exchange when
// the cap is exceeded.
func (m *Manager) AddExchange(id, user, assistant string) {
	if m.maxHistory <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[id], exchange{user: user, assistant: assistant})
	if len(history) > m.maxHistory {
		history = history[len(history)-m.maxHistory:]
	}
	m.sessions[id] = history
}

// History renders the session's exchanges oldest-first as
// "User: ...\nAssistant: ..." blocks separated by blank lines. Unknown
// or empty sessions yield "".
func (m *Manager) History(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.sessions[id]
	if len(history) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(history))
	for _, ex := range history {
		blocks = append(blocks, fmt.Sprintf("User: %s\nAssistant: %s", ex.user, ex.assistant))
	}
	return strings.Join(blocks, "\n\n")
}

// Clear removes the session's history entirely.
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
