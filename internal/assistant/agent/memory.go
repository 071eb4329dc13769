// internal/assistant/agent/memory.go
package agent

import (
	"sync"

	"fiscal-assistant/internal/models"
)

// Memory is the conversation history of one session, bounded to the most recent messages.
type Memory struct {
	mu       sync.RWMutex
	window   int
	messages []models.Message
}

// NewMemory keeps at most window messages. An odd window is rounded up so
// that only whole user/assistant exchanges are retained.
func NewMemory(window int) *Memory {
	if window <= 0 {
		window = 10
	}
	if window%2 == 1 {
		window++
	}
	return &Memory{window: window}
}

// AppendTurn records a completed user/assistant exchange.
func (m *Memory) AppendTurn(input, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages,
		models.Message{Role: models.RoleUser, Content: input},
		models.Message{Role: models.RoleAssistant, Content: output},
	)
	if over := len(m.messages) - m.window; over > 0 {
		m.messages = append([]models.Message(nil), m.messages[over:]...)
	}
}

// Messages returns a copy of the retained history in turn order.
func (m *Memory) Messages() []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
