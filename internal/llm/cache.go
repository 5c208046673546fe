package llm

import (
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// CacheKey computes a deterministic cache key for a request: the model name
// and every message's role/content, hashed with xxhash so repeat calls with
// byte-identical stable-prefix content (the common case across judges sharing
// one packed context) hit the cache instead of paying for another completion.
func CacheKey(req Request) string {
	var b strings.Builder
	b.WriteString(req.Model)
	b.WriteByte(0)
	for _, m := range req.Messages {
		b.WriteString(m.Role)
		b.WriteByte(0)
		b.WriteString(m.Content)
		b.WriteByte(0)
	}
	sum := xxhash.Sum64String(b.String())
	return strconv.FormatUint(sum, 16)
}

// Cache is a process-local, deterministic response cache keyed by CacheKey.
// It is not an LRU: entries never expire within a run, since a single run's
// total distinct requests is bounded by invariant count × judge count, which
// is small enough to keep in memory for the run's lifetime.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Response
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Response)}
}

// Get returns the cached response for req, if any.
func (c *Cache) Get(req Request) (*Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	resp, ok := c.entries[CacheKey(req)]
	return resp, ok
}

// Put stores resp under req's cache key.
func (c *Cache) Put(req Request, resp *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[CacheKey(req)] = resp
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
