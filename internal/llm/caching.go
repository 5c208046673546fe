package llm

import "context"

// Compile-time check that CachingProvider implements Provider.
var _ Provider = (*CachingProvider)(nil)

// CachingProvider wraps a Provider with a deterministic response cache so
// that repeated requests with byte-identical messages (common when several
// judges share the same packed context and ask structurally similar
// questions against it) do not pay for another completion.
type CachingProvider struct {
	inner Provider
	cache *Cache
}

// NewCachingProvider wraps inner with cache.
func NewCachingProvider(inner Provider, cache *Cache) *CachingProvider {
	return &CachingProvider{inner: inner, cache: cache}
}

// Name delegates to the wrapped provider.
func (c *CachingProvider) Name() string { return c.inner.Name() }

// CheckPrerequisites delegates to the wrapped provider.
func (c *CachingProvider) CheckPrerequisites() error { return c.inner.CheckPrerequisites() }

// Complete returns a cached response when available, otherwise calls through
// to the wrapped provider and caches the result.
func (c *CachingProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if resp, ok := c.cache.Get(req); ok {
		return resp, nil
	}
	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Put(req, resp)
	return resp, nil
}
