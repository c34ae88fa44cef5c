package tutor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spotlight2/coach/internal/preferences"
)

// Manager keeps one conversation per learner for the life of the process.
type Manager struct {
	mu    sync.Mutex
	convs map[uuid.UUID]*Conversation
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{convs: make(map[uuid.UUID]*Conversation)}
}

// Conversation returns the learner's conversation, opening it with the
// welcome message in lang on first use.
func (m *Manager) Conversation(learner uuid.UUID, lang preferences.Language) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.convs[learner]
	if !ok {
		conv = NewConversation(learner, Welcome(lang))
		m.convs[learner] = conv
	}
	return conv
}
