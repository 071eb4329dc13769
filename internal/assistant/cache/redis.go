package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/metrics"
)

const redisKeyPrefix = "fiscal:cache:"

// RedisCache shares entries across replicas. Keys are fiscal:cache:<session>:<key>.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration, log logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "cache", "backend": "redis"}),
	}
}

func redisKey(session, key string) string {
	return redisKeyPrefix + sessionOrDefault(session) + ":" + NormalizeKey(key)
}

func (c *RedisCache) Get(ctx context.Context, session, key string) (string, bool) {
	val, err := c.client.Get(ctx, redisKey(session, key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		return "", false
	case err != nil:
		c.warn("cache get failed", session, err)
		metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
		return "", false
	}
	metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
	return val, true
}

func (c *RedisCache) Put(ctx context.Context, session, key, value string) {
	if err := c.client.Set(ctx, redisKey(session, key), value, c.ttl).Err(); err != nil {
		c.warn("cache put failed", session, err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, session, key string) {
	if err := c.client.Del(ctx, redisKey(session, key)).Err(); err != nil {
		c.warn("cache invalidate failed", session, err)
	}
}

func (c *RedisCache) Clear(ctx context.Context, session string) {
	removed, err := c.deleteMatching(ctx, redisKeyPrefix+escapeGlob(sessionOrDefault(session))+":*")
	if err != nil {
		c.warn("cache clear failed", session, err)
		return
	}
	c.logger.Info("session cache cleared", map[string]interface{}{
		"sessionId": session,
		"removed":   removed,
	})
}

func (c *RedisCache) ClearAll(ctx context.Context) {
	removed, err := c.deleteMatching(ctx, redisKeyPrefix+"*")
	if err != nil {
		c.warn("cache flush failed", "", err)
		return
	}
	c.logger.Info("cache flushed", map[string]interface{}{"removed": removed})
}

func (c *RedisCache) deleteMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (c *RedisCache) warn(msg, session string, err error) {
	stdErr := apperrors.NewCacheUnavailableError(err)
	c.logger.Warn(msg, map[string]interface{}{
		"sessionId": session,
		"errorCode": string(stdErr.Code),
		"error":     err.Error(),
	})
}

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`).Replace(s)
}
