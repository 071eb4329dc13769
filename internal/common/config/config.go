// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Search        SearchConfig        `mapstructure:"search"`
	Cache         CacheConfig         `mapstructure:"cache"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Agent         AgentConfig         `mapstructure:"agent"`
	Session       SessionConfig       `mapstructure:"session"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP boundary settings.
type ServerConfig struct {
	Port           string `mapstructure:"port"`
	APIKey         string `mapstructure:"api_key"`
	AllowOrigins   string `mapstructure:"allow_origins"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type ElasticsearchConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	SSLEnabled     bool     `mapstructure:"ssl_enabled"`
	VerifyCerts    bool     `mapstructure:"verify_certs"`
	RequestTimeout int      `mapstructure:"request_timeout"` // milliseconds
	URL            string   `mapstructure:"url"`             // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SearchConfig describes the knowledge-corpus query.
type SearchConfig struct {
	Index      string             `mapstructure:"index"`
	MaxResults int                `mapstructure:"max_results"`
	Fields     map[string]float64 `mapstructure:"fields"`
}

// CacheConfig selects the session cache backend ("memory" or "redis").
type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	TTL     int    `mapstructure:"ttl"` // seconds, 0 means no expiry
}

// LLMConfig holds settings for the language-model provider.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, anthropic, google, mock
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

// AgentConfig holds the orchestrator loop settings.
type AgentConfig struct {
	MaxIterations int    `mapstructure:"max_iterations"`
	MemoryWindow  int    `mapstructure:"memory_window"`
	SystemPrompt  string `mapstructure:"system_prompt"`
}

// SessionConfig controls how long idle conversations are kept.
type SessionConfig struct {
	IdleTimeout int `mapstructure:"idle_timeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds tracing settings.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
}
