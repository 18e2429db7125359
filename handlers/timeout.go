package handlers

import (
	"context"
	"time"

	"github.com/saiset-co/sai-handle/types"
)

type TimeoutConfig struct {
	TimeoutMs int64 `json:"timeout_ms"`
}

// Timeout puts a deadline on the ctx the rest of the chain is awaited with.
// Handlers below must observe ctx themselves; nothing is abandoned here.
type Timeout[C, O any] struct {
	next    types.Delegate[C, O]
	timeout time.Duration
	weight  int
}

func NewTimeout[C, O any](next types.Delegate[C, O], logger types.Logger, item *types.HandlerItemConfig) *Timeout[C, O] {
	timeoutConfig := &TimeoutConfig{
		TimeoutMs: 30000,
	}
	decodeParams(item, timeoutConfig, logger, "timeout")

	return &Timeout[C, O]{
		next:    next,
		timeout: time.Duration(timeoutConfig.TimeoutMs) * time.Millisecond,
		weight:  weightOf(item, 50),
	}
}

func (t *Timeout[C, O]) Name() string { return "timeout" }
func (t *Timeout[C, O]) Weight() int  { return t.weight }

func (t *Timeout[C, O]) Call(cx *C) *types.Future[O] {
	return types.Async(func(ctx context.Context) O {
		if t.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.timeout)
			defer cancel()
		}

		return t.next(cx).Await(ctx)
	})
}
