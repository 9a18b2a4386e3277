package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/schemaviz"
)

// MemoryCache is an in-process schemaviz.Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

type cacheItem struct {
	value   []byte
	expires time.Time // zero means never
}

var _ schemaviz.Cache = (*MemoryCache)(nil)

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]cacheItem), now: time.Now}
}

// Get returns the value stored under key, or nil when it is missing or
// expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !item.expires.IsZero() && !c.now().Before(item.expires) {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur.expires.Equal(item.expires) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return item.value, nil
}

// Set stores value under key. A zero ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := cacheItem{value: value}
	if ttl > 0 {
		item.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// Clear empties the cache.
func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// artifact is a cached HTTP response body.
type artifact struct {
	ContentType string `msgpack:"content_type"`
	Body        []byte `msgpack:"body"`
}

// fetch decodes the msgpack value under key into v. It reports whether
// a value was found.
func fetch(ctx context.Context, c schemaviz.Cache, key schemaviz.CacheKey, v any) (bool, error) {
	data, err := c.Get(ctx, key.String())
	if err != nil || data == nil {
		return false, err
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// keep encodes v with msgpack and stores it under key.
func keep(ctx context.Context, c schemaviz.Cache, key schemaviz.CacheKey, v any, ttl time.Duration) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key.String(), data, ttl)
}
