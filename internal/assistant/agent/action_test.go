package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/models"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantFinal bool
		wantTool  string
		wantInput string
	}{
		{
			name:     "fenced tool call",
			text:     "Je vais chercher.\n```json\n{\"action\": \"BaseFiscalePremium\", \"action_input\": \"taux TVA\"}\n```",
			wantTool: "BaseFiscalePremium", wantInput: "taux TVA",
		},
		{
			name:     "bare tool call",
			text:     `{"action": "BaseFiscalePremium", "action_input": "délai IR"}`,
			wantTool: "BaseFiscalePremium", wantInput: "délai IR",
		},
		{
			name:     "object input",
			text:     `{"action": "BaseFiscalePremium", "action_input": {"query": "patente"}}`,
			wantTool: "BaseFiscalePremium", wantInput: "patente",
		},
		{
			name:      "final answer",
			text:      "```json\n{\"action\": \"Final Answer\", \"action_input\": \"18 %\"}\n```",
			wantFinal: true, wantInput: "18 %",
		},
		{
			name:      "final answer any case",
			text:      `{"action": "final answer", "action_input": "ok"}`,
			wantFinal: true, wantInput: "ok",
		},
		{
			name:      "plain text",
			text:      "  Le taux normal de TVA est de 18 %. ",
			wantFinal: true, wantInput: "Le taux normal de TVA est de 18 %.",
		},
		{
			name:      "braces that are not json",
			text:      "Voir {article 369} du CGI",
			wantFinal: true, wantInput: "Voir {article 369} du CGI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ParseAction(tt.text)
			assert.Equal(t, tt.wantFinal, a.IsFinal())
			assert.Equal(t, tt.wantTool != "", a.IsTool())
			assert.Equal(t, tt.wantTool, a.Tool)
			assert.Equal(t, tt.wantInput, a.Input)
		})
	}
}

func TestParseAction_SchemaViolation(t *testing.T) {
	for _, text := range []string{
		`{"action_input": "x"}`,
		`{"action": "", "action_input": "x"}`,
		`{"action": "BaseFiscalePremium"}`,
	} {
		a := ParseAction(text)
		assert.False(t, a.IsFinal(), text)
		assert.False(t, a.IsTool(), text)
		assert.Equal(t, apperrors.ErrCodeAgentOutputInvalid, apperrors.CodeOf(a.Err), text)
	}
}

func TestMemory_Window(t *testing.T) {
	m := NewMemory(4)
	m.AppendTurn("q1", "a1")
	m.AppendTurn("q2", "a2")
	m.AppendTurn("q3", "a3")

	msgs := m.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "q2", msgs[0].Content)
	assert.Equal(t, "a3", msgs[3].Content)

	m.Reset()
	assert.Equal(t, 0, m.Len())
}

func TestMemory_OddWindowKeepsWholeExchanges(t *testing.T) {
	for _, window := range []int{1, 3, 5} {
		m := NewMemory(window)
		for i := 0; i < 4; i++ {
			m.AppendTurn("question", "réponse")
		}

		msgs := m.Messages()
		require.Len(t, msgs, window+1, "window %d", window)
		assert.Equal(t, models.RoleUser, msgs[0].Role, "window %d starts with a user message", window)
		assert.Equal(t, models.RoleAssistant, msgs[len(msgs)-1].Role)
	}
}
