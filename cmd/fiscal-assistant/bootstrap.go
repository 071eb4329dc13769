// cmd/fiscal-assistant/bootstrap.go
package main

import (
	"context"
	"fmt"
	"time"

	"fiscal-assistant/internal/assistant/agent"
	"fiscal-assistant/internal/assistant/cache"
	"fiscal-assistant/internal/assistant/gate"
	"fiscal-assistant/internal/assistant/llm"
	"fiscal-assistant/internal/assistant/retrieval"
	"fiscal-assistant/internal/assistant/session"
	"fiscal-assistant/internal/assistant/tool"
	"fiscal-assistant/internal/common/config"
	"fiscal-assistant/internal/common/database"
	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/observability"
)

// assistant holds every wired component of a running process.
type assistant struct {
	cfg      *config.Config
	log      logger.Logger
	obs      *observability.Observability
	es       *database.ElasticsearchClient
	redis    *database.RedisClient
	cache    cache.Cache
	tool     *tool.KnowledgeTool
	llm      llm.Provider
	sessions *session.Manager
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).
		WithFields(map[string]interface{}{"service": cfg.App.Name, "env": cfg.App.Environment})
}

// buildAssistant wires the assistant. An unreachable search engine is logged, not fatal:
// queries then resolve to the not-found reply.
func buildAssistant(ctx context.Context, cfg *config.Config, log logger.Logger) (*assistant, error) {
	a := &assistant{
		cfg: cfg,
		log: log,
		obs: observability.New(cfg.Observability.ServiceName),
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return nil, err
	}
	a.es = es

	err = retryWithBackoff(func() error { return es.Ping(ctx) }, 3, time.Second, log, "Elasticsearch connection")
	if err != nil {
		log.Warn("elasticsearch unreachable, answers will fall back to not-found", map[string]interface{}{"error": err.Error()})
	} else if ok, err := es.IndexExists(ctx, cfg.Search.Index); err == nil && !ok {
		log.Warn("knowledge index does not exist, run the seed command", map[string]interface{}{"index": cfg.Search.Index})
	} else if err == nil {
		log.Info("Elasticsearch connected successfully", map[string]interface{}{"index": cfg.Search.Index})
	}

	ttl := time.Duration(cfg.Cache.TTL) * time.Second
	switch cfg.Cache.Backend {
	case "redis":
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, err
		}
		if err := retryWithBackoff(func() error { return rdb.Ping(ctx) }, 5, time.Second, log, "Redis connection"); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		a.redis = rdb
		a.cache = cache.NewRedisCache(rdb.Client, ttl, log)
	default:
		a.cache = cache.NewMemoryCache(ttl, log)
	}

	classifier := gate.New(gate.DefaultConfig(), log)
	engine := retrieval.NewEngine(retrieval.ConfigFrom(cfg), es.Client, log)
	a.tool = tool.New(classifier, engine, a.cache, a.obs, log)

	provider, err := llm.New(ctx, cfg.LLM, agent.OfflineResponder(tool.Name), log)
	if err != nil {
		return nil, err
	}
	a.llm = provider

	agentCfg := agent.ConfigFrom(cfg.Agent)
	a.sessions = session.NewManager(&session.Config{
		IdleTimeout: time.Duration(cfg.Session.IdleTimeout) * time.Second,
	}, func(id string) *agent.Orchestrator {
		return a.newOrchestrator(agentCfg, id, classifier)
	}, a.cache, log)

	return a, nil
}

func (a *assistant) newOrchestrator(cfg *agent.Config, sessionID string, classifier gate.Classifier) *agent.Orchestrator {
	return agent.New(cfg, sessionID, agent.Dependencies{
		LLM:           a.llm,
		Tools:         []tool.Tool{a.tool},
		Cache:         a.cache,
		Gate:          classifier,
		Observability: a.obs,
		Logger:        a.log,
	})
}

func (a *assistant) Close() {
	if a.sessions != nil {
		a.sessions.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("error closing redis", map[string]interface{}{"error": err.Error()})
		}
	}
	a.obs.Shutdown()
}
