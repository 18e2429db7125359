package types

import (
	"context"
	"sync/atomic"
)

// Future is a pending computation producing O. Nothing runs until it is
// driven with Await, TryAwait or Go, and it can be driven at most once.
type Future[O any] struct {
	used atomic.Uintptr
	run  func(ctx context.Context) O
}

// Async wraps run into a Future without invoking it.
func Async[O any](run func(ctx context.Context) O) *Future[O] {
	return &Future[O]{run: run}
}

// Ready returns a Future that resolves to o without doing any work.
func Ready[O any](o O) *Future[O] {
	return &Future[O]{run: func(context.Context) O { return o }}
}

// Await drives the computation on the calling goroutine and returns its
// result. A second Await on the same Future panics with ErrFutureAwaited.
// A nil Future resolves to the zero value.
func (f *Future[O]) Await(ctx context.Context) O {
	if f == nil {
		var zero O
		return zero
	}

	if f.used.Add(1) != 1 {
		panic(ErrFutureAwaited)
	}

	return f.run(ctx)
}

// TryAwait is Await that reports reuse instead of panicking.
func (f *Future[O]) TryAwait(ctx context.Context) (O, bool) {
	if f == nil {
		var zero O
		return zero, true
	}

	if f.used.Add(1) != 1 {
		var zero O
		return zero, false
	}

	return f.run(ctx), true
}

// Go drives the computation on a new goroutine. The returned channel
// receives exactly one value and is then closed.
func (f *Future[O]) Go(ctx context.Context) <-chan O {
	out := make(chan O, 1)

	if f == nil {
		var zero O
		out <- zero
		close(out)
		return out
	}

	if f.used.Add(1) != 1 {
		panic(ErrFutureAwaited)
	}

	go func() {
		defer close(out)
		out <- f.run(ctx)
	}()

	return out
}

// Discard marks the Future as consumed without running it.
func (f *Future[O]) Discard() {
	if f != nil {
		f.used.Store(1)
	}
}

// Pending reports whether the Future has not been driven or discarded yet.
func (f *Future[O]) Pending() bool {
	return f != nil && f.used.Load() == 0
}

// Then chains fn after f. Neither runs until the returned Future is driven.
func Then[A, B any](f *Future[A], fn func(ctx context.Context, a A) B) *Future[B] {
	return Async(func(ctx context.Context) B {
		return fn(ctx, f.Await(ctx))
	})
}
