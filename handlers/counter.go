package handlers

import (
	"sync/atomic"

	"github.com/saiset-co/sai-handle/types"
)

// Counter counts how many times it was called across every pass and context
// it is loaded into. Clone starts a fresh count for the same position.
type Counter[C, O any] struct {
	next   types.Delegate[C, O]
	name   string
	weight int
	calls  *atomic.Int64
}

func NewCounter[C, O any](next types.Delegate[C, O], name string, weight int) *Counter[C, O] {
	return &Counter[C, O]{
		next:   next,
		name:   name,
		weight: weight,
		calls:  new(atomic.Int64),
	}
}

func (c *Counter[C, O]) Name() string { return c.name }
func (c *Counter[C, O]) Weight() int  { return c.weight }
func (c *Counter[C, O]) Calls() int64 { return c.calls.Load() }

func (c *Counter[C, O]) Call(cx *C) *types.Future[O] {
	c.calls.Add(1)
	return c.next(cx)
}

func (c *Counter[C, O]) Clone() *Counter[C, O] {
	return NewCounter(c.next, c.name, c.weight)
}
