// internal/assistant/tool/tool.go
package tool

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"fiscal-assistant/internal/assistant/arbiter"
	"fiscal-assistant/internal/assistant/cache"
	"fiscal-assistant/internal/assistant/gate"
	"fiscal-assistant/internal/assistant/retrieval"
	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/observability"
	"fiscal-assistant/internal/models"
)

const (
	Name        = "BaseFiscalePremium"
	Description = "Base de connaissances sur la fiscalité sénégalaise"
)

// Tool is a named capability the orchestrator can invoke with one free-text argument.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
}

type sessionKey struct{}

// WithSession scopes cache access of tool calls made with ctx to a session.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom returns the session attached by WithSession.
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// KnowledgeTool runs gate, retrieval and arbitration over the fiscal corpus.
type KnowledgeTool struct {
	gate   gate.Classifier
	engine retrieval.Searcher
	cache  cache.Cache
	obs    *observability.Observability
	logger logger.Logger
}

// New builds the tool. cache may be nil.
func New(classifier gate.Classifier, engine retrieval.Searcher, c cache.Cache, obs *observability.Observability, log logger.Logger) *KnowledgeTool {
	return &KnowledgeTool{
		gate:   classifier,
		engine: engine,
		cache:  c,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"tool": Name}),
	}
}

func (t *KnowledgeTool) Name() string        { return Name }
func (t *KnowledgeTool) Description() string { return Description }

func (t *KnowledgeTool) Call(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d := t.Answer(ctx, input)
	return d.Reply, nil
}

// Answer returns the arbitrated decision for query. The search engine is only
// consulted for in-domain queries.
func (t *KnowledgeTool) Answer(ctx context.Context, query string) arbiter.Decision {
	ctx, span := observability.Tracer().Start(ctx, "tool.answer")
	defer span.End()

	session := SessionFrom(ctx)
	classification := t.gate.Classify(query)
	span.SetAttributes(attribute.String("gate.classification", classification.String()))

	var d arbiter.Decision
	switch classification {
	case models.ClassificationInDomain:
		d = t.answerInDomain(ctx, session, query)
	default:
		d = arbiter.Arbitrate(classification, nil)
	}

	span.SetAttributes(attribute.String("arbiter.provenance", string(d.Provenance)))
	t.obs.RecordToolCall(ctx, string(d.Provenance))
	t.logger.Info("tool answered", map[string]interface{}{
		"sessionId":      session,
		"classification": classification.String(),
		"provenance":     string(d.Provenance),
	})
	return d
}

func (t *KnowledgeTool) answerInDomain(ctx context.Context, session, query string) arbiter.Decision {
	if t.cache != nil {
		if reply, ok := t.cache.Get(ctx, session, query); ok && strings.TrimSpace(reply) != "" {
			t.logger.Debug("cache hit", map[string]interface{}{"sessionId": session})
			return arbiter.Decision{Reply: reply, Provenance: models.ProvenanceRetrieved}
		}
	}

	d := arbiter.Arbitrate(models.ClassificationInDomain, t.engine.Search(ctx, query))

	// not-found may stem from an outage, so only retrieved answers are kept
	if t.cache != nil && d.Provenance == models.ProvenanceRetrieved {
		t.cache.Put(ctx, session, query, d.Reply)
	}
	return d
}
