// internal/assistant/session/manager.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"fiscal-assistant/internal/assistant/agent"
	"fiscal-assistant/internal/assistant/cache"
	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/metrics"
)

// Factory builds the orchestrator of a new session.
type Factory func(sessionID string) *agent.Orchestrator

type Config struct {
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		IdleTimeout:     time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}

// Manager maps session identifiers to orchestrators. A session idle for longer
// than IdleTimeout is evicted together with its cached replies.
type Manager struct {
	mu      sync.Mutex
	store   *gocache.Cache
	factory Factory
	cache   cache.Cache
	logger  logger.Logger
}

// NewManager creates a registry. c may be nil.
func NewManager(cfg *Config, factory Factory, c cache.Cache, log logger.Logger) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = cfg.IdleTimeout / 2
	}

	m := &Manager{
		store:   gocache.New(cfg.IdleTimeout, cleanup),
		factory: factory,
		cache:   c,
		logger:  log.WithFields(map[string]interface{}{"component": "sessions"}),
	}
	m.store.OnEvicted(m.onEvicted)
	return m
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// GetOrCreate returns the session's orchestrator, creating it when unknown.
// An empty id opens a new session; the id in use is returned.
func (m *Manager) GetOrCreate(id string) (*agent.Orchestrator, string) {
	if id == "" {
		id = NewID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.store.Get(id); ok {
		o := v.(*agent.Orchestrator)
		m.store.SetDefault(id, o)
		return o, id
	}

	// an expired entry may linger until the janitor runs
	m.store.Delete(id)

	o := m.factory(id)
	m.store.SetDefault(id, o)
	metrics.ActiveSessions.Inc()
	m.logger.Info("session opened", map[string]interface{}{"sessionId": id})
	return o, id
}

// OneShot builds an orchestrator that is never registered. The returned
// release func drops whatever the turn cached.
func (m *Manager) OneShot() (*agent.Orchestrator, func()) {
	id := NewID()
	o := m.factory(id)
	return o, func() {
		if m.cache != nil {
			m.cache.Clear(context.Background(), id)
		}
	}
}

// Get returns an existing session without creating one.
func (m *Manager) Get(id string) (*agent.Orchestrator, bool) {
	v, ok := m.store.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*agent.Orchestrator), true
}

// Drop ends a session, forgetting its memory and cached replies.
func (m *Manager) Drop(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.store.Get(id); !ok {
		return false
	}
	m.store.Delete(id)
	return true
}

func (m *Manager) Count() int {
	return m.store.ItemCount()
}

// Close drops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.store.Items() {
		m.store.Delete(id)
	}
}

func (m *Manager) onEvicted(id string, _ interface{}) {
	metrics.ActiveSessions.Dec()
	if m.cache != nil {
		m.cache.Clear(context.Background(), id)
	}
	m.logger.Info("session closed", map[string]interface{}{"sessionId": id})
}
