// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/cord-engine/pkg/types"
)

// DefaultWorkers is the size of the per-document worker pool.
const DefaultWorkers = 16

// DocFunc transforms one document. It must not retain or mutate state
// shared with other calls.
type DocFunc func(ctx context.Context, doc types.Document) (types.Document, error)

// chunks splits n items into at most k contiguous ranges whose sizes
// differ by at most one, larger ranges first.
func chunks(n, k int) [][2]int {
	if n == 0 {
		return nil
	}
	k = max(1, min(k, n))
	size, extra := n/k, n%k
	out := make([][2]int, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		end := start + size
		if i < extra {
			end++
		}
		out = append(out, [2]int{start, end})
		start = end
	}
	return out
}

// Parallel applies fn to every document using workers goroutines. Each
// goroutine owns one contiguous chunk and works on its own copies, so the
// input is never modified. Results come back in input order. The first
// error cancels the remaining work and is returned with no partial
// results.
func Parallel(ctx context.Context, docs []types.Document, workers int, fn DocFunc) ([]types.Document, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	out := make([]types.Document, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range chunks(len(docs), workers) {
		g.Go(func() error {
			for i := c[0]; i < c[1]; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				d, err := fn(gctx, docs[i].Clone())
				if err != nil {
					return err
				}
				out[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
