// internal/assistant/retrieval/engine.go
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/metrics"
	"fiscal-assistant/internal/common/observability"
	"fiscal-assistant/internal/models"
)

// Searcher returns the best corpus hits for a query. It never fails:
// an unavailable search service yields an empty set.
type Searcher interface {
	Search(ctx context.Context, query string) models.CandidateSet
}

type Engine struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewEngine(cfg *Config, client *elasticsearch.Client, log logger.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{
		config: cfg,
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "retrieval", "index": cfg.Index}),
	}
}

func (e *Engine) Search(ctx context.Context, query string) models.CandidateSet {
	ctx, span := observability.Tracer().Start(ctx, "retrieval.search")
	defer span.End()
	span.SetAttributes(attribute.String("search.index", e.config.Index))

	start := time.Now()
	candidates, err := e.search(ctx, query)
	metrics.SearchDuration.WithLabelValues(e.config.Index).Observe(time.Since(start).Seconds())

	if err != nil {
		code := apperrors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		metrics.SearchFailures.WithLabelValues(e.config.Index, string(code)).Inc()
		e.logger.Warn("search failed, continuing without candidates", map[string]interface{}{
			"error":     err.Error(),
			"errorCode": string(code),
		})
		return models.CandidateSet{}
	}

	span.SetAttributes(attribute.Int("search.hits", len(candidates)))
	for i, c := range candidates {
		e.logger.Debug("search hit", map[string]interface{}{
			"rank":     i + 1,
			"score":    c.Score,
			"question": c.Question,
		})
	}
	return candidates
}

func (e *Engine) search(ctx context.Context, query string) (models.CandidateSet, error) {
	if e.client == nil {
		return nil, apperrors.NewSearchUnavailableError(fmt.Errorf("elasticsearch client not configured"))
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	size := e.config.MaxResults
	if size <= 0 || size > MaxCandidates {
		size = MaxCandidates
	}

	body, err := json.Marshal(BuildSearchQuery(query, e.config.Fields, size))
	if err != nil {
		return nil, apperrors.NewSearchUnavailableError(fmt.Errorf("marshal query: %w", err))
	}

	req := esapi.SearchRequest{
		Index: []string{e.config.Index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, apperrors.NewSearchUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var esErr errorResponse
		_ = json.NewDecoder(res.Body).Decode(&esErr)
		if res.StatusCode == http.StatusNotFound || esErr.Error.Type == "index_not_found_exception" {
			return nil, apperrors.NewIndexNotFoundError(e.config.Index)
		}
		return nil, apperrors.NewSearchUnavailableError(
			fmt.Errorf("search error: %s %s", res.Status(), esErr.Error.Reason))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, apperrors.NewSearchUnavailableError(fmt.Errorf("decode response: %w", err))
	}

	return toCandidates(sr.Hits.Hits, size), nil
}

// toCandidates orders hits by descending score and keeps at most limit of them.
func toCandidates(hits []searchHit, limit int) models.CandidateSet {
	out := make(models.CandidateSet, 0, len(hits))
	for _, h := range hits {
		score := 0.0
		if h.Score != nil && *h.Score > 0 {
			score = *h.Score
		}
		out = append(out, models.Candidate{
			Question: h.Source.Question,
			Answer:   h.Source.Answer,
			Tags:     []string(h.Source.Tags),
			Score:    score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
