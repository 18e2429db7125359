package handlers

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/types"
)

type RecoveryConfig struct {
	StackTrace bool `json:"stack_trace"`
}

// Recovery turns a panic anywhere in the rest of the chain into an output
// built by fallback.
type Recovery[C, O any] struct {
	next           types.Delegate[C, O]
	logger         types.Logger
	fallback       func(error) O
	recoveryConfig *RecoveryConfig
	weight         int
}

func NewRecovery[C, O any](next types.Delegate[C, O], logger types.Logger, item *types.HandlerItemConfig, fallback func(error) O) *Recovery[C, O] {
	recoveryConfig := &RecoveryConfig{
		StackTrace: true,
	}
	decodeParams(item, recoveryConfig, logger, "recovery")

	return &Recovery[C, O]{
		next:           next,
		logger:         logger,
		fallback:       fallback,
		recoveryConfig: recoveryConfig,
		weight:         weightOf(item, 10),
	}
}

func (r *Recovery[C, O]) Name() string { return "recovery" }
func (r *Recovery[C, O]) Weight() int  { return r.weight }

func (r *Recovery[C, O]) Call(cx *C) *types.Future[O] {
	return types.Async(func(ctx context.Context) (out O) {
		defer func() {
			if rec := recover(); rec != nil {
				err := errors.WithStack(types.Errorf(types.ErrPanicRecovered, "%v", rec))
				r.logPanic(rec, err, cx)

				if r.fallback != nil {
					out = r.fallback(err)
				}
			}
		}()

		return r.next(cx).Await(ctx)
	})
}

func (r *Recovery[C, O]) logPanic(rec interface{}, err error, cx *C) {
	fields := []zap.Field{zap.Any("panic", rec)}

	if pass := passOf(cx); pass != "" {
		fields = append(fields, zap.String("pass", pass))
	}

	if r.recoveryConfig.StackTrace {
		r.logger.ErrorWithErrStack("Recovered from panic", err, fields...)
		return
	}

	r.logger.Error("Recovered from panic", fields...)
}
