package server

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-handle/chain"
	"github.com/saiset-co/sai-handle/types"
)

// Context is the per-request context threaded through a request chain.
// It embeds the fasthttp request, so handlers read and write the request
// and response directly and can pass cx itself as a context.Context.
type Context struct {
	*fasthttp.RequestCtx

	chain  *chain.Chain[Context, error]
	values map[string]interface{}
}

// Delegate advances the chain owned by a Context. Generic handlers from the
// handlers package take it as their next step.
var Delegate types.Delegate[Context, error] = chain.Via((*Context).Chain)

func NewContext(rc *fasthttp.RequestCtx, c *chain.Chain[Context, error]) *Context {
	if c == nil {
		c = chain.New[Context, error]()
	}

	return &Context{
		RequestCtx: rc,
		chain:      c,
	}
}

// Next runs the rest of the request chain once the returned Future is awaited.
func (cx *Context) Next() *types.Future[error] {
	return cx.chain.Next(cx)
}

func (cx *Context) Chain() *chain.Chain[Context, error] {
	return cx.chain
}

func (cx *Context) Pass() string {
	return cx.chain.Pass()
}

// Set stores a value for the handlers further down the chain.
func (cx *Context) Set(key string, value interface{}) {
	if cx.values == nil {
		cx.values = make(map[string]interface{})
	}
	cx.values[key] = value
}

func (cx *Context) Get(key string) (interface{}, bool) {
	value, ok := cx.values[key]
	return value, ok
}
