package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/metrics"
)

const keySeparator = "\x1f"

// MemoryCache keeps entries in process. A zero ttl never expires entries.
type MemoryCache struct {
	store  *gocache.Cache
	logger logger.Logger
}

func NewMemoryCache(ttl time.Duration, log logger.Logger) *MemoryCache {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &MemoryCache{
		store:  gocache.New(expiration, cleanup),
		logger: log.WithFields(map[string]interface{}{"component": "cache", "backend": "memory"}),
	}
}

func memoryKey(session, key string) string {
	return sessionOrDefault(session) + keySeparator + NormalizeKey(key)
}

func (c *MemoryCache) Get(_ context.Context, session, key string) (string, bool) {
	v, ok := c.store.Get(memoryKey(session, key))
	if !ok {
		metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()
		return "", false
	}
	metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
	return s, true
}

func (c *MemoryCache) Put(_ context.Context, session, key, value string) {
	c.store.Set(memoryKey(session, key), value, gocache.DefaultExpiration)
}

func (c *MemoryCache) Invalidate(_ context.Context, session, key string) {
	c.store.Delete(memoryKey(session, key))
}

func (c *MemoryCache) Clear(_ context.Context, session string) {
	prefix := sessionOrDefault(session) + keySeparator
	removed := 0
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
			removed++
		}
	}
	c.logger.Info("session cache cleared", map[string]interface{}{
		"sessionId": session,
		"removed":   removed,
	})
}

func (c *MemoryCache) ClearAll(_ context.Context) {
	c.store.Flush()
	c.logger.Info("cache flushed", nil)
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.store.ItemCount()
}
