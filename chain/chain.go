// Package chain holds an ordered, consumable set of handlers for one
// traversal and the Next operation that advances it.
//
// A Chain is owned by the context it is threaded through (or a struct
// wrapping that context) and is not safe for concurrent use: one traversal
// drives one context on one goroutine. Fork independent contexts with
// RunAll when branches must run in parallel.
package chain

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/types"
)

// Order decides which end of the loaded handlers Next consumes.
//
// FIFO runs handlers in the order they were loaded, so the first one is the
// outermost wrapper. LIFO treats the loaded handlers as a stack and runs the
// last one first.
type Order int

const (
	FIFO Order = iota
	LIFO
)

func (o Order) String() string {
	switch o {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	default:
		return "unknown"
	}
}

func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	default:
		return FIFO, types.Errorf(types.ErrConfigParseFailed, "chain order: %s", s)
	}
}

// Arrange returns a copy of outermostFirst laid out so that, loaded into a
// chain with the given order, the first handler still runs outermost.
// Registry selections are weight ordered this way.
func Arrange[C, O any](order Order, outermostFirst []types.Handler[C, O]) []types.Handler[C, O] {
	arranged := slices.Clone(outermostFirst)
	if order == LIFO {
		slices.Reverse(arranged)
	}
	return arranged
}

type Chain[C, O any] struct {
	handlers []types.Handler[C, O]
	order    Order
	done     O
	logger   types.Logger
	pass     string
	depth    int
}

type Option[C, O any] func(*Chain[C, O])

func WithOrder[C, O any](order Order) Option[C, O] {
	return func(c *Chain[C, O]) {
		c.order = order
	}
}

// WithDone sets the value Next resolves to once the chain is exhausted.
func WithDone[C, O any](done O) Option[C, O] {
	return func(c *Chain[C, O]) {
		c.done = done
	}
}

func WithLogger[C, O any](logger types.Logger) Option[C, O] {
	return func(c *Chain[C, O]) {
		c.logger = logger
	}
}

func New[C, O any](opts ...Option[C, O]) *Chain[C, O] {
	c := &Chain[C, O]{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the pending handlers with a copy of handlers and starts a
// new pass. The caller's slice is never consumed. Nil handlers are skipped.
func (c *Chain[C, O]) Load(handlers ...types.Handler[C, O]) {
	c.handlers = make([]types.Handler[C, O], 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			c.handlers = append(c.handlers, h)
		}
	}

	c.pass = uuid.NewString()
	c.depth = 0

	if c.logger != nil {
		c.logger.Debug("Chain loaded",
			zap.String("pass", c.pass),
			zap.Int("handlers", len(c.handlers)),
			zap.Stringer("order", c.order),
		)
	}
}

// Push appends h to the pending handlers of the current pass.
func (c *Chain[C, O]) Push(h types.Handler[C, O]) {
	if h != nil {
		c.handlers = append(c.handlers, h)
	}
}

// Next returns the rest of the chain as a Future. When awaited it takes one
// handler according to the chain's Order and awaits its Call with cx; when
// nothing is left it resolves to the done value without touching cx.
func (c *Chain[C, O]) Next(cx *C) *types.Future[O] {
	return types.Async(func(ctx context.Context) O {
		h, ok := c.take()
		if !ok {
			return c.done
		}

		c.depth++

		if c.logger != nil {
			c.logger.Debug("Chain step",
				zap.String("pass", c.pass),
				zap.Int("depth", c.depth),
				zap.Int("remaining", len(c.handlers)),
			)
		}

		return h.Call(cx).Await(ctx)
	})
}

func (c *Chain[C, O]) take() (types.Handler[C, O], bool) {
	n := len(c.handlers)
	if n == 0 {
		return nil, false
	}

	var h types.Handler[C, O]
	if c.order == LIFO {
		h = c.handlers[n-1]
		c.handlers[n-1] = nil
		c.handlers = c.handlers[:n-1]
	} else {
		h = c.handlers[0]
		c.handlers[0] = nil
		c.handlers = c.handlers[1:]
	}

	return h, true
}

// Len is the number of handlers not yet taken in the current pass.
func (c *Chain[C, O]) Len() int { return len(c.handlers) }

// Depth is the number of handlers started in the current pass.
func (c *Chain[C, O]) Depth() int { return c.depth }

// Pass identifies the current pass; it changes on every Load.
func (c *Chain[C, O]) Pass() string { return c.pass }

func (c *Chain[C, O]) Order() Order { return c.order }

// Reset drops any pending handlers. The next Next resolves to the done value.
func (c *Chain[C, O]) Reset() {
	c.handlers = nil
	c.depth = 0
}

// Via builds a Delegate from an accessor to the chain a context owns.
func Via[C, O any](chainOf func(cx *C) *Chain[C, O]) types.Delegate[C, O] {
	return func(cx *C) *types.Future[O] {
		return chainOf(cx).Next(cx)
	}
}
