package schemaviz

import (
	"context"
	"strings"
	"time"
)

// Cache is the interface for caching built graphs and rendered diagrams.
// The server ships an in-memory implementation; users may plug in a shared
// store (e.g., Redis) when several instances serve the same schemas.
type Cache interface {
	// Get returns the encoded artifact under key, or nil, nil when it is
	// missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores an encoded artifact. A zero ttl keeps it until it is
	// deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete drops one artifact.
	Delete(ctx context.Context, key string) error

	// DeletePrefix drops every artifact whose key starts with prefix, for
	// example all diagrams with "diagram:".
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear drops everything, typically after the schema files changed.
	Clear(ctx context.Context) error
}

// CacheKey identifies one cached artifact.
type CacheKey struct {
	Kind        string // "snapshot", "diagram" or "image"
	Format      string // mermaid, dot, png, ...
	Orientation string
	Options     []string // extra build switches that change the output
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Kind + ":" + k.Format + ":" + k.Orientation + ":" + strings.Join(k.Options, ",")
}
