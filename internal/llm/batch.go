package llm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem holds one request of a batch. Batch returns each item's result
// at the item's own index, so results keep submission order regardless of
// completion order.
type BatchItem struct {
	Request Request
}

// BatchResult is one item's outcome. Err is non-nil when that single request
// failed; a failure in one item never cancels its siblings, matching the
// orchestrator's per-worker error-capture pattern.
type BatchResult struct {
	Response *Response
	Err      error
}

// Batch runs every item in items through provider with bounded concurrency,
// returning results in the same order as items. A single item's failure is
// captured in its BatchResult, not propagated as a fatal error for the whole
// batch.
func Batch(ctx context.Context, provider Provider, items []BatchItem, concurrency int) ([]BatchResult, error) {
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			resp, err := provider.Complete(gctx, item.Request)
			results[i] = BatchResult{Response: resp, Err: err}
			// Always return nil: one item's error must not cancel siblings.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
