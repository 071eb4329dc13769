// internal/assistant/agent/orchestrator.go
package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fiscal-assistant/internal/assistant/arbiter"
	"fiscal-assistant/internal/assistant/cache"
	"fiscal-assistant/internal/assistant/gate"
	"fiscal-assistant/internal/assistant/llm"
	"fiscal-assistant/internal/assistant/tool"
	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/metrics"
	"fiscal-assistant/internal/common/observability"
	"fiscal-assistant/internal/models"
)

// State is the orchestrator's position in a turn.
type State string

const (
	StateIdle           State = "idle"
	StateReasoning      State = "reasoning"
	StateToolInvocation State = "tool_invocation"
)

// Dependencies are the collaborators of an Orchestrator. Cache and Gate are optional.
type Dependencies struct {
	LLM           llm.Provider
	Tools         []tool.Tool
	Cache         cache.Cache
	Gate          gate.Classifier
	Observability *observability.Observability
	Logger        logger.Logger
}

// Orchestrator runs the reason/act/observe loop for one session.
type Orchestrator struct {
	config    *Config
	sessionID string
	llm       llm.Provider
	tools     []tool.Tool
	toolIndex map[string]tool.Tool
	cache     cache.Cache
	gate      gate.Classifier
	obs       *observability.Observability
	memory    *Memory
	logger    logger.Logger

	mu    sync.Mutex // serialises turns
	stMu  sync.RWMutex
	state State
}

func New(cfg *Config, sessionID string, deps Dependencies) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	index := make(map[string]tool.Tool, len(deps.Tools))
	for _, t := range deps.Tools {
		index[strings.ToLower(t.Name())] = t
	}

	return &Orchestrator{
		config:    cfg,
		sessionID: sessionID,
		llm:       deps.LLM,
		tools:     deps.Tools,
		toolIndex: index,
		cache:     deps.Cache,
		gate:      deps.Gate,
		obs:       deps.Observability,
		memory:    NewMemory(cfg.MemoryWindow),
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator", "sessionId": sessionID}),
		state:     StateIdle,
	}
}

func (o *Orchestrator) SessionID() string { return o.sessionID }
func (o *Orchestrator) Memory() *Memory   { return o.memory }

func (o *Orchestrator) State() State {
	o.stMu.RLock()
	defer o.stMu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.stMu.Lock()
	o.state = s
	o.stMu.Unlock()
}

// IsClearCommand reports whether input asks to clear the session cache.
func IsClearCommand(input string) bool {
	switch cache.NormalizeKey(input) {
	case "vider cache", "reset":
		return true
	}
	return false
}

// Turn answers one user input. The returned reply is never empty: on failure it is
// a polite retry request and err carries the classified cause.
func (o *Orchestrator) Turn(ctx context.Context, input string) (reply string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	ctx = tool.WithSession(ctx, o.sessionID)
	ctx, span := observability.Tracer().Start(ctx, "agent.turn")
	defer span.End()

	o.logger.Info("question received", map[string]interface{}{"question": input})

	if IsClearCommand(input) {
		if o.cache != nil {
			o.cache.Clear(ctx, o.sessionID)
		}
		o.finishTurn(ctx, start, "cache_cleared")
		return CacheClearedMessage, nil
	}

	if o.gate != nil && o.gate.Classify(input) == models.ClassificationGreeting {
		o.finishTurn(ctx, start, "greeting")
		return arbiter.GreetingMessage, nil
	}

	var toolInputs []string
	defer o.setState(StateIdle)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = apperrors.NewInternalError(fmt.Sprintf("panic: %v", r))
				o.logger.Error("panic recovered during turn", map[string]interface{}{
					"panic": fmt.Sprint(r),
					"stack": string(debug.Stack()),
				})
			}
		}()
		reply, toolInputs, err = o.run(ctx, input)
	}()

	if err != nil {
		code := apperrors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		o.logger.Error("turn failed", map[string]interface{}{
			"error":     err.Error(),
			"errorCode": string(code),
			"category":  apperrors.GetErrorCategory(code),
		})
		o.invalidate(ctx, input, toolInputs)
		o.finishTurn(ctx, start, "error")
		return RetryMessage, err
	}

	o.memory.AppendTurn(input, reply)
	o.logger.Info("answer produced", map[string]interface{}{
		"answer":     reply,
		"durationMs": time.Since(start).Milliseconds(),
	})
	o.finishTurn(ctx, start, "answered")
	return reply, nil
}

// run executes Reasoning/ToolInvocation steps up to the configured cap.
func (o *Orchestrator) run(ctx context.Context, input string) (string, []string, error) {
	if o.llm == nil {
		return "", nil, apperrors.NewInternalError("no language model configured")
	}

	system := systemMessage(o.config.SystemPrompt, o.tools)
	history := o.memory.Messages()

	var (
		scratchpad      []models.Message
		toolInputs      []string
		lastObservation string
	)

	for i := 0; i < o.config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return "", toolInputs, err
		}

		o.setState(StateReasoning)
		out, err := o.llm.Chat(ctx, buildMessages(system, history, input, scratchpad))
		if err != nil {
			return "", toolInputs, err
		}

		action := ParseAction(out)
		o.logger.Debug("reasoning step", map[string]interface{}{
			"iteration": i + 1,
			"final":     action.IsFinal(),
			"tool":      action.Tool,
		})

		switch {
		case action.IsFinal() && action.Input != "":
			metrics.AgentIterations.Observe(float64(i + 1))
			return action.Input, toolInputs, nil

		case action.IsTool():
			t, ok := o.toolIndex[strings.ToLower(action.Tool)]
			if !ok {
				scratchpad = append(scratchpad,
					models.Message{Role: models.RoleAssistant, Content: out},
					observationMessage(unknownToolObservation(action.Tool, o.tools)))
				continue
			}

			o.setState(StateToolInvocation)
			toolInputs = append(toolInputs, action.Input)
			observation, err := t.Call(ctx, action.Input)
			if err != nil {
				return "", toolInputs, err
			}
			lastObservation = observation
			scratchpad = append(scratchpad,
				models.Message{Role: models.RoleAssistant, Content: out},
				observationMessage(observation))

		default:
			if action.Err != nil {
				o.logger.Warn("unusable agent output", map[string]interface{}{
					"error":     action.Err.Error(),
					"errorCode": string(apperrors.CodeOf(action.Err)),
				})
			}
			scratchpad = append(scratchpad,
				models.Message{Role: models.RoleAssistant, Content: out},
				observationMessage(invalidFormatObservation))
		}
	}

	metrics.AgentIterations.Observe(float64(o.config.MaxIterations))
	return o.generate(ctx, system, history, input, scratchpad, lastObservation), toolInputs, nil
}

// generate forces a final answer once the iteration cap is reached. It never fails.
func (o *Orchestrator) generate(ctx context.Context, system models.Message, history []models.Message, input string, scratchpad []models.Message, lastObservation string) string {
	o.setState(StateReasoning)
	o.logger.Warn("iteration cap reached, generating final answer", map[string]interface{}{
		"maxIterations": o.config.MaxIterations,
	})

	msgs := buildMessages(system, history, input, scratchpad)
	msgs = append(msgs, models.Message{Role: models.RoleUser, Content: generatePrompt})

	out, err := o.llm.Chat(ctx, msgs)
	if err == nil {
		if action := ParseAction(out); action.IsFinal() && action.Input != "" {
			return action.Input
		}
	} else {
		o.logger.Warn("final generation failed", map[string]interface{}{"error": err.Error()})
	}

	if strings.TrimSpace(lastObservation) != "" {
		return lastObservation
	}
	return FallbackMessage
}

// invalidate drops the cache entries tied to the failing turn only.
func (o *Orchestrator) invalidate(ctx context.Context, input string, toolInputs []string) {
	if o.cache == nil {
		return
	}
	// the turn's own context may already be cancelled
	cleanup := context.WithoutCancel(ctx)
	o.cache.Invalidate(cleanup, o.sessionID, input)
	for _, q := range toolInputs {
		o.cache.Invalidate(cleanup, o.sessionID, q)
	}
}

func (o *Orchestrator) finishTurn(ctx context.Context, start time.Time, outcome string) {
	metrics.TurnsCompleted.WithLabelValues(outcome).Inc()
	o.obs.RecordTurn(ctx, outcome)
	o.obs.RecordTurnDuration(ctx, time.Since(start), outcome)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("turn.outcome", outcome))
}
