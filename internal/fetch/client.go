package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"txview/internal/log"
)

// Client issues requests on behalf of one consumer. Loading reports whether
// any request it issued is still in flight.
type Client struct {
	transport Transport
	cache     *Cache
	logger    *log.Logger
	inflight  atomic.Int64
}

// NewClient creates a client sharing cache and transport with other clients.
func NewClient(transport Transport, cache *Cache, logger *log.Logger) *Client {
	return &Client{
		transport: transport,
		cache:     cache,
		logger:    log.OrDefault(logger, log.ComponentFetch),
	}
}

// Loading reports whether a request issued by this client is in flight.
func (c *Client) Loading() bool {
	return c.inflight.Load() > 0
}

// Cache returns the shared request cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

// FetchWithCache returns the cached response for (endpoint, params) or
// performs the request and caches it. A JSON null response yields nil.
func FetchWithCache[T any](ctx context.Context, c *Client, endpoint string, params any) (*T, error) {
	key, err := Key(endpoint, params)
	if err != nil {
		return nil, err
	}

	if body, ok := c.cache.get(key); ok {
		c.logger.DebugContext(ctx, "Request cache hit", log.NewFields().WithRequest(endpoint, key).ToSlice()...)
		return decode[T](endpoint, body)
	}

	c.begin()
	defer c.end()

	// The shared request outlives any single caller: a waiter that gives up
	// only stops waiting.
	shared := context.WithoutCancel(ctx)
	ch := c.cache.group.DoChan(key, func() (any, error) {
		gen := c.cache.generation(endpoint)
		body, err := c.transport.Request(shared, endpoint, params)
		if err != nil {
			return nil, err
		}
		if !c.cache.storeIfCurrent(endpoint, key, gen, body) {
			c.logger.DebugContext(shared, "Discarded response for invalidated endpoint",
				log.NewFields().WithRequest(endpoint, key).ToSlice()...)
		}
		return body, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("request %s: %w", endpoint, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, res.Err)
	}

	c.logger.DebugContext(ctx, "Request cache miss",
		append(log.NewFields().WithRequest(endpoint, key).ToSlice(), "shared", res.Shared)...)
	return decode[T](endpoint, res.Val.([]byte))
}

// FetchWithoutCache always performs the request and never reads or writes the cache.
func FetchWithoutCache[T any](ctx context.Context, c *Client, endpoint string, params any) (*T, error) {
	c.begin()
	defer c.end()

	body, err := c.transport.Request(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	return decode[T](endpoint, body)
}

func (c *Client) begin() { c.inflight.Add(1) }

func (c *Client) end() { c.inflight.Add(-1) }

func decode[T any](endpoint string, body []byte) (*T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return &out, nil
}
