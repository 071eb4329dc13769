// internal/assistant/agent/config.go
package agent

import "fiscal-assistant/internal/common/config"

const DefaultSystemPrompt = `Vous êtes un expert fiscal sénégalais. Répondez de manière précise et structurée :
1. Donnez des réponses factuelles basées sur la réglementation
2. Citez vos sources quand c'est possible
3. Pour les questions hors sujet, redirigez vers www.impotsetdomaines.gouv.sn`

const (
	RetryMessage = "⚠️ Une erreur est survenue lors du traitement de votre question. " +
		"Veuillez reformuler votre question ou contacter le support technique."

	FallbackMessage = "Je n'ai pas pu formuler une réponse complète. " +
		"Consultez le site officiel : www.impotsetdomaines.gouv.sn"

	CacheClearedMessage = "🗑️ Cache vidé avec succès !"
)

type Config struct {
	MaxIterations int
	MemoryWindow  int
	SystemPrompt  string
}

func DefaultConfig() *Config {
	return &Config{
		MaxIterations: 4,
		MemoryWindow:  10,
		SystemPrompt:  DefaultSystemPrompt,
	}
}

// ConfigFrom maps the application configuration onto the orchestrator's.
func ConfigFrom(cfg config.AgentConfig) *Config {
	c := DefaultConfig()
	if cfg.MaxIterations > 0 {
		c.MaxIterations = cfg.MaxIterations
	}
	if cfg.MemoryWindow > 0 {
		c.MemoryWindow = cfg.MemoryWindow
	}
	if cfg.SystemPrompt != "" {
		c.SystemPrompt = cfg.SystemPrompt
	}
	return c
}
