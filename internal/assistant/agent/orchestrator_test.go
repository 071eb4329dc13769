package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscal-assistant/internal/assistant/arbiter"
	"fiscal-assistant/internal/assistant/cache"
	"fiscal-assistant/internal/assistant/gate"
	"fiscal-assistant/internal/assistant/llm"
	"fiscal-assistant/internal/assistant/tool"
	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/observability"
	"fiscal-assistant/internal/models"
)

// ==========================
// Test Doubles
// ==========================

type fakeTool struct {
	mu      sync.Mutex
	reply   string
	panics  bool
	inputs  []string
	session []string
}

func (f *fakeTool) Name() string        { return tool.Name }
func (f *fakeTool) Description() string { return tool.Description }

func (f *fakeTool) Call(ctx context.Context, input string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("index out of range")
	}
	f.inputs = append(f.inputs, input)
	f.session = append(f.session, tool.SessionFrom(ctx))
	return f.reply, nil
}

func (f *fakeTool) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func toolCall(input string) string {
	return actionBlob(tool.Name, input)
}

func finalAnswer(text string) string {
	return actionBlob(FinalAnswerAction, text)
}

func createTestOrchestrator(t *testing.T, provider llm.Provider, tl tool.Tool, c cache.Cache) *Orchestrator {
	return New(DefaultConfig(), "session-1", Dependencies{
		LLM:           provider,
		Tools:         []tool.Tool{tl},
		Cache:         c,
		Observability: observability.NewNoop(),
		Logger:        logger.NewTestLogger(t),
	})
}

// ==========================
// Reasoning Loop
// ==========================

func TestOrchestrator_ToolThenFinalAnswer(t *testing.T) {
	provider := llm.NewScriptedMock(
		toolCall("délai déclaration TVA"),
		finalAnswer("La déclaration de TVA se fait sous 30 jours."),
	)
	ft := &fakeTool{reply: "30 jours"}
	o := createTestOrchestrator(t, provider, ft, nil)

	reply, err := o.Turn(context.Background(), "Quels sont les délais pour la déclaration de TVA ?")

	require.NoError(t, err)
	assert.Equal(t, "La déclaration de TVA se fait sous 30 jours.", reply)
	assert.Equal(t, []string{"délai déclaration TVA"}, ft.inputs)
	assert.Equal(t, []string{"session-1"}, ft.session)
	assert.Equal(t, StateIdle, o.State())

	calls := provider.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, models.RoleSystem, calls[0][0].Role)
	assert.Contains(t, calls[0][0].Content, tool.Name)
	assert.Contains(t, calls[0][0].Content, tool.Description)
	last := calls[1][len(calls[1])-1]
	assert.True(t, strings.HasPrefix(last.Content, observationPrefix+"30 jours"))

	history := o.Memory().Messages()
	require.Len(t, history, 2)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "Quels sont les délais pour la déclaration de TVA ?"}, history[0])
	assert.Equal(t, models.RoleAssistant, history[1].Role)
}

func TestOrchestrator_DirectAnswerWithoutTool(t *testing.T) {
	provider := llm.NewScriptedMock("Le CGI est le Code général des impôts.")
	ft := &fakeTool{}
	o := createTestOrchestrator(t, provider, ft, nil)

	reply, err := o.Turn(context.Background(), "Que signifie CGI ?")

	require.NoError(t, err)
	assert.Equal(t, "Le CGI est le Code général des impôts.", reply)
	assert.Equal(t, 0, ft.calls())
}

func TestOrchestrator_UnknownToolIsObserved(t *testing.T) {
	provider := llm.NewScriptedMock(
		actionBlob("WebSearch", "tva"),
		finalAnswer("18 %"),
	)
	o := createTestOrchestrator(t, provider, &fakeTool{}, nil)

	reply, err := o.Turn(context.Background(), "taux de TVA")

	require.NoError(t, err)
	assert.Equal(t, "18 %", reply)
	calls := provider.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1][len(calls[1])-1].Content, "WebSearch n'est pas un outil valide")
}

// ==========================
// Iteration Cap
// ==========================

func TestOrchestrator_CapGeneratesFinalAnswer(t *testing.T) {
	provider := llm.NewScriptedMock(
		toolCall("tva"), toolCall("tva 2"), toolCall("tva 3"), toolCall("tva 4"),
		"Synthèse : le taux normal est de 18 %.",
	)
	ft := &fakeTool{reply: "18 %"}
	o := createTestOrchestrator(t, provider, ft, nil)

	reply, err := o.Turn(context.Background(), "taux de TVA")

	require.NoError(t, err)
	assert.Equal(t, "Synthèse : le taux normal est de 18 %.", reply)
	assert.Equal(t, 4, ft.calls())
	assert.Equal(t, 5, provider.CallCount())

	calls := provider.Calls()
	assert.Equal(t, generatePrompt, calls[4][len(calls[4])-1].Content)
}

func TestOrchestrator_CapFallsBackToLastObservation(t *testing.T) {
	provider := llm.NewMockProvider(nil,
		llm.MockReply{Text: toolCall("a")},
		llm.MockReply{Text: toolCall("b")},
		llm.MockReply{Text: toolCall("c")},
		llm.MockReply{Text: toolCall("d")},
		llm.MockReply{Err: errors.New("rate limited")},
	)
	o := createTestOrchestrator(t, provider, &fakeTool{reply: "30 jours"}, nil)

	reply, err := o.Turn(context.Background(), "délai TVA")

	require.NoError(t, err)
	assert.Equal(t, "30 jours", reply)
}

func TestOrchestrator_CapWithoutObservationsStillAnswers(t *testing.T) {
	provider := llm.NewScriptedMock(`{"wrong": "shape"}`)
	o := createTestOrchestrator(t, provider, &fakeTool{}, nil)

	reply, err := o.Turn(context.Background(), "délai TVA")

	require.NoError(t, err)
	assert.Equal(t, FallbackMessage, reply)
	assert.NotEmpty(t, reply)
	assert.Equal(t, 5, provider.CallCount())
}

// ==========================
// Failures
// ==========================

func TestOrchestrator_LLMFailureInvalidatesOnlyTurnEntries(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(0, logger.NewTestLogger(t))
	c.Put(ctx, "session-1", "délai TVA", "stale")
	c.Put(ctx, "session-1", "tva export", "stale too")
	c.Put(ctx, "session-1", "patente", "CET")
	c.Put(ctx, "session-2", "délai TVA", "other session")

	provider := llm.NewMockProvider(nil,
		llm.MockReply{Text: toolCall("tva export")},
		llm.MockReply{Err: errors.New("503 service unavailable")},
	)
	o := createTestOrchestrator(t, provider, &fakeTool{reply: "exonérée"}, c)

	reply, err := o.Turn(ctx, "délai TVA")

	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrLLMFailed))
	assert.Equal(t, RetryMessage, reply)

	_, ok := c.Get(ctx, "session-1", "délai TVA")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "session-1", "tva export")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "session-1", "patente")
	assert.True(t, ok, "unrelated entries survive")
	_, ok = c.Get(ctx, "session-2", "délai TVA")
	assert.True(t, ok, "other sessions survive")

	assert.Equal(t, 0, o.Memory().Len(), "failed turns are not remembered")
}

func TestOrchestrator_LLMTimeout(t *testing.T) {
	provider := llm.NewMockProvider(nil, llm.MockReply{Err: context.DeadlineExceeded})
	o := createTestOrchestrator(t, provider, &fakeTool{}, nil)

	reply, err := o.Turn(context.Background(), "délai TVA")

	assert.Equal(t, RetryMessage, reply)
	assert.True(t, errors.Is(err, llm.ErrLLMTimeout))
	assert.Equal(t, apperrors.ErrCodeLLMTimeout, apperrors.CodeOf(err))
}

func TestOrchestrator_PanicIsRecovered(t *testing.T) {
	provider := llm.NewScriptedMock(toolCall("tva"))
	o := createTestOrchestrator(t, provider, &fakeTool{panics: true}, nil)

	reply, err := o.Turn(context.Background(), "taux de TVA")

	assert.Equal(t, RetryMessage, reply)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.CodeOf(err))
	assert.Equal(t, StateIdle, o.State())

	// the session keeps working
	o.llm = llm.NewScriptedMock("ok")
	reply, err = o.Turn(context.Background(), "taux de TVA")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}

func TestOrchestrator_NoProvider(t *testing.T) {
	o := createTestOrchestrator(t, nil, &fakeTool{}, nil)
	reply, err := o.Turn(context.Background(), "tva")
	assert.Equal(t, RetryMessage, reply)
	assert.Error(t, err)
}

// ==========================
// Memory
// ==========================

func TestOrchestrator_MemoryCarriesAcrossTurns(t *testing.T) {
	provider := llm.NewScriptedMock("18 %", "Non, l'export est exonéré.")
	o := createTestOrchestrator(t, provider, &fakeTool{}, nil)

	_, err := o.Turn(context.Background(), "Quel est le taux de TVA ?")
	require.NoError(t, err)
	_, err = o.Turn(context.Background(), "Et pour l'export ?")
	require.NoError(t, err)

	second := provider.Calls()[1]
	require.Len(t, second, 4)
	assert.Equal(t, "Quel est le taux de TVA ?", second[1].Content)
	assert.Equal(t, "18 %", second[2].Content)
	assert.Equal(t, "Et pour l'export ?", second[3].Content)
}

func TestOrchestrator_MemoryWindowIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryWindow = 4
	provider := llm.NewScriptedMock("r")
	o := New(cfg, "s", Dependencies{LLM: provider, Tools: []tool.Tool{&fakeTool{}}, Logger: logger.NewNoOpLogger()})

	for _, q := range []string{"q1", "q2", "q3"} {
		_, err := o.Turn(context.Background(), q)
		require.NoError(t, err)
	}

	history := o.Memory().Messages()
	require.Len(t, history, 4)
	assert.Equal(t, "q2", history[0].Content)
	assert.Equal(t, "q3", history[2].Content)

	third := provider.Calls()[2]
	assert.Len(t, third, 1+4+1)
}

func TestOrchestrator_TurnsAreSerialised(t *testing.T) {
	provider := llm.NewMockProvider(func(messages []models.Message) (string, error) {
		return "echo " + messages[len(messages)-1].Content, nil
	})
	o := createTestOrchestrator(t, provider, &fakeTool{}, nil)
	o.config.MemoryWindow = 100
	o.memory = NewMemory(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = o.Turn(context.Background(), strings.Repeat("q", n+1))
		}(i)
	}
	wg.Wait()

	history := o.Memory().Messages()
	require.Len(t, history, 20)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, models.RoleUser, history[i].Role)
		assert.Equal(t, "echo "+history[i].Content, history[i+1].Content)
	}
}

// ==========================
// Local Commands
// ==========================

func TestOrchestrator_ClearCommand(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(0, logger.NewTestLogger(t))
	c.Put(ctx, "session-1", "tva", "18 %")
	c.Put(ctx, "session-2", "tva", "18 %")

	provider := llm.NewScriptedMock("unused")
	o := createTestOrchestrator(t, provider, &fakeTool{}, c)

	for _, cmd := range []string{"vider cache", "  RESET "} {
		reply, err := o.Turn(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, CacheClearedMessage, reply)
	}

	_, ok := c.Get(ctx, "session-1", "tva")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "session-2", "tva")
	assert.True(t, ok)
	assert.Equal(t, 0, provider.CallCount())
}

func TestOrchestrator_GreetingShortCircuit(t *testing.T) {
	provider := llm.NewScriptedMock("unused")
	o := New(DefaultConfig(), "s", Dependencies{
		LLM:    provider,
		Tools:  []tool.Tool{&fakeTool{}},
		Gate:   gate.New(gate.DefaultConfig(), logger.NewNoOpLogger()),
		Logger: logger.NewTestLogger(t),
	})

	reply, err := o.Turn(context.Background(), "Bonjour !")

	require.NoError(t, err)
	assert.Equal(t, arbiter.GreetingMessage, reply)
	assert.Equal(t, 0, provider.CallCount())
}

func TestOrchestrator_OfflineResponder(t *testing.T) {
	provider := llm.NewMockProvider(OfflineResponder(tool.Name))
	ft := &fakeTool{reply: "30 jours"}
	o := createTestOrchestrator(t, provider, ft, nil)

	reply, err := o.Turn(context.Background(), "délai de déclaration TVA")

	require.NoError(t, err)
	assert.Equal(t, "30 jours", reply)
	assert.Equal(t, []string{"délai de déclaration TVA"}, ft.inputs)
}

func TestIsClearCommand(t *testing.T) {
	assert.True(t, IsClearCommand("vider cache"))
	assert.True(t, IsClearCommand("Vider   Cache"))
	assert.True(t, IsClearCommand("reset"))
	assert.False(t, IsClearCommand("reset de la patente"))
}
