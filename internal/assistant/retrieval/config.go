// internal/assistant/retrieval/config.go
package retrieval

import (
	"time"

	"fiscal-assistant/internal/common/config"
)

// MaxCandidates bounds every CandidateSet returned by the engine.
const MaxCandidates = 3

type Config struct {
	Index      string
	MaxResults int
	Fields     map[string]float64
	Timeout    time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Index:      "assistant_fiscal_v2",
		MaxResults: MaxCandidates,
		Fields: map[string]float64{
			"question": 3,
			"reponse":  2,
			"tags":     1,
		},
		Timeout: 45 * time.Second,
	}
}

// ConfigFrom maps the application configuration onto the engine's.
func ConfigFrom(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg.Search.Index != "" {
		c.Index = cfg.Search.Index
	}
	if cfg.Search.MaxResults > 0 {
		c.MaxResults = cfg.Search.MaxResults
	}
	if len(cfg.Search.Fields) > 0 {
		c.Fields = cfg.Search.Fields
	}
	if cfg.Database.Elasticsearch.RequestTimeout > 0 {
		c.Timeout = config.GetDuration(cfg.Database.Elasticsearch.RequestTimeout)
	}
	return c
}
