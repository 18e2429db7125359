package chain

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/saiset-co/sai-handle/types"
)

// Run loads handlers into c and drives one full traversal with cx.
func Run[C, O any](ctx context.Context, cx *C, c *Chain[C, O], handlers ...types.Handler[C, O]) O {
	c.Load(handlers...)
	return c.Next(cx).Await(ctx)
}

// RunAll drives one traversal per context concurrently. Each context keeps
// its own chain, so no two goroutines touch the same context. The first
// non-nil error cancels the ctx seen by the other traversals.
func RunAll[C any](ctx context.Context, contexts []*C, chainOf func(cx *C) *Chain[C, error], handlers ...types.Handler[C, error]) error {
	g, gCtx := errgroup.WithContext(ctx)

	for _, cx := range contexts {
		g.Go(func() error {
			return Run(gCtx, cx, chainOf(cx), handlers...)
		})
	}

	return g.Wait()
}
