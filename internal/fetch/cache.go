// Package fetch memoizes idempotent transport requests.
//
// A Cache is shared process-wide and keyed by endpoint name plus serialized
// parameters. Each consumer talks to it through its own Client, which owns the
// consumer's loading flag. Mutations go through FetchWithoutCache and never
// touch the Cache.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"txview/internal/cache"
)

// Transport performs a named request and returns the JSON-encoded response.
type Transport interface {
	Request(ctx context.Context, endpoint string, params any) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, endpoint string, params any) ([]byte, error)

func (f TransportFunc) Request(ctx context.Context, endpoint string, params any) ([]byte, error) {
	return f(ctx, endpoint, params)
}

// DefaultMaxEntries bounds the cache when no explicit size is configured.
const DefaultMaxEntries = 1024

// Cache stores raw responses keyed by Key(endpoint, params).
//
// Every endpoint carries a generation number. Invalidation bumps it, and a
// response is only stored if the generation it was requested under is still
// current, so a late response cannot repopulate an invalidated slot.
type Cache struct {
	mu    sync.Mutex
	store cache.Cache[[]byte]
	gens  map[string]uint64
	group singleflight.Group
}

// NewCache creates a request cache holding at most maxEntries responses.
// Entries never expire; they leave the cache by eviction or invalidation.
func NewCache(maxEntries int) *Cache {
	return NewExpiringCache(maxEntries, 0)
}

// NewExpiringCache is NewCache with responses that expire ttl after being
// stored. A non-positive ttl disables expiry.
func NewExpiringCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		store: cache.NewLRUCache[[]byte](maxEntries, ttl),
		gens:  make(map[string]uint64),
	}
}

// Key computes the composite cache key for a request.
func Key(endpoint string, params any) (string, error) {
	if params == nil {
		params = struct{}{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("serialize params for %s: %w", endpoint, err)
	}
	return endpoint + " " + string(b), nil
}

// Invalidate removes the entry for one request.
func (c *Cache) Invalidate(endpoint string, params any) error {
	key, err := Key(endpoint, params)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[endpoint]++
	c.store.Delete(key)
	return nil
}

// InvalidateEndpoint removes every entry for endpoint and returns how many were dropped.
func (c *Cache) InvalidateEndpoint(endpoint string) int {
	prefix := endpoint + " "
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[endpoint]++
	return c.store.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// Size returns the number of live cached responses, dropping expired ones first.
func (c *Cache) Size() int {
	c.store.CleanExpired()
	return c.store.Size()
}

func (c *Cache) get(key string) ([]byte, bool) {
	return c.store.Get(key)
}

func (c *Cache) generation(endpoint string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[endpoint]
}

// storeIfCurrent writes body under key unless endpoint was invalidated after gen was read.
func (c *Cache) storeIfCurrent(endpoint, key string, gen uint64, body []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[endpoint] != gen {
		return false
	}
	c.store.Set(key, body)
	return true
}
