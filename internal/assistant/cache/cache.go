// Package cache stores tool replies per conversation session.
package cache

import (
	"context"
	"strings"
)

// Cache is a best-effort session-scoped reply store. Failures are logged, never returned.
type Cache interface {
	Get(ctx context.Context, session, key string) (string, bool)
	Put(ctx context.Context, session, key, value string)
	Invalidate(ctx context.Context, session, key string)
	Clear(ctx context.Context, session string)
	ClearAll(ctx context.Context)
}

// NormalizeKey trims, lower-cases and collapses whitespace so equivalent queries share an entry.
func NormalizeKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// sessionOrDefault keeps entries written without a session in their own namespace.
func sessionOrDefault(session string) string {
	if session == "" {
		return "_"
	}
	return session
}
