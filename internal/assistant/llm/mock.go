package llm

import (
	"context"
	"sync"

	"fiscal-assistant/internal/models"
)

// Responder computes a reply from the conversation sent to the mock.
type Responder func(messages []models.Message) (string, error)

// MockReply is one scripted step: a reply, an error, or both empty for "".
type MockReply struct {
	Text string
	Err  error
}

// MockProvider returns scripted replies for tests and offline runs.
// When the script is exhausted it falls back to the responder, then to the last reply.
type MockProvider struct {
	mu        sync.Mutex
	script    []MockReply
	next      int
	responder Responder
	calls     [][]models.Message
}

func NewMockProvider(responder Responder, script ...MockReply) *MockProvider {
	return &MockProvider{script: script, responder: responder}
}

// NewScriptedMock is a shorthand for replies without errors.
func NewScriptedMock(replies ...string) *MockProvider {
	script := make([]MockReply, len(replies))
	for i, r := range replies {
		script[i] = MockReply{Text: r}
	}
	return NewMockProvider(nil, script...)
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Chat(ctx context.Context, messages []models.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]models.Message, len(messages))
	copy(snapshot, messages)
	m.calls = append(m.calls, snapshot)

	if err := ctx.Err(); err != nil {
		return "", classify(m.Name(), err)
	}

	var reply MockReply
	switch {
	case m.next < len(m.script):
		reply = m.script[m.next]
		m.next++
	case m.responder != nil:
		text, err := m.responder(snapshot)
		reply = MockReply{Text: text, Err: err}
	case len(m.script) > 0:
		reply = m.script[len(m.script)-1]
	}

	if reply.Err != nil {
		return "", classify(m.Name(), reply.Err)
	}
	return reply.Text, nil
}

// Calls returns every conversation the mock received.
func (m *MockProvider) Calls() [][]models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]models.Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Chat invocations.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
