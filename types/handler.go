package types

import "context"

// Handler is a unit of behavior run against a shared context of type C.
//
// Call must not block: it may touch cx, but all remaining work, including
// delegation to the rest of a chain, belongs in the returned Future. The
// pointer is only valid until that Future resolves and must not be retained.
type Handler[C, O any] interface {
	Call(cx *C) *Future[O]
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc[C, O any] func(cx *C) *Future[O]

func (f HandlerFunc[C, O]) Call(cx *C) *Future[O] {
	return f(cx)
}

// Func adapts a direct-style function to Handler. The function body runs
// when the Future is awaited, not when Call is invoked.
type Func[C, O any] func(ctx context.Context, cx *C) O

func (f Func[C, O]) Call(cx *C) *Future[O] {
	return Async(func(ctx context.Context) O {
		return f(ctx, cx)
	})
}

// Delegate advances whatever chain cx is threaded through. Reusable
// handlers hold one instead of knowing the shape of C.
type Delegate[C, O any] func(cx *C) *Future[O]

// Middleware is a Handler that can be registered by name and weight.
type Middleware[C, O any] interface {
	Handler[C, O]
	Name() string
	Weight() int
}
