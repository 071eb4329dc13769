package llm

import (
	"context"
	"fmt"

	"fiscal-assistant/internal/common/config"
	"fiscal-assistant/internal/common/logger"
)

// New builds the provider selected by cfg.Provider. responder backs the mock provider.
func New(ctx context.Context, cfg config.LLMConfig, responder Responder, log logger.Logger) (Provider, error) {
	opts := Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     config.GetDuration(cfg.Timeout),
	}

	log.Info("initializing language model provider", map[string]interface{}{
		"provider": cfg.Provider,
		"model":    cfg.Model,
	})

	switch cfg.Provider {
	case "openai", "groq":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, opts)
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, opts)
	case "google":
		return NewGoogleProvider(ctx, cfg.APIKey, opts)
	case "mock":
		return NewMockProvider(responder), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
