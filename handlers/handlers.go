// Package handlers provides reusable handlers that wrap the rest of a chain.
//
// Every handler here is generic over the context type C and output type O
// and reaches the rest of the chain through a types.Delegate, so it can be
// registered with any chain regardless of the context's shape.
package handlers

import (
	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/types"
	"github.com/saiset-co/sai-handle/utils"
)

// Passer is implemented by contexts that expose their current pass id.
type Passer interface {
	Pass() string
}

// Failure lets O = error handlers turn an error into their output as is.
func Failure(err error) error { return err }

func passOf[C any](cx *C) string {
	if p, ok := any(cx).(Passer); ok {
		return p.Pass()
	}
	return ""
}

func errorOf[O any](out O) error {
	if err, ok := any(out).(error); ok {
		return err
	}
	return nil
}

func decodeParams[T any](item *types.HandlerItemConfig, target *T, logger types.Logger, name string) {
	if item == nil || item.Params == nil {
		return
	}

	if err := utils.UnmarshalConfig(item.Params, target); err != nil && logger != nil {
		logger.Error("Failed to unmarshal handler params", zap.String("handler", name), zap.Error(err))
	}
}

// weightOf treats an unset (zero) weight as the handler's default.
func weightOf(item *types.HandlerItemConfig, def int) int {
	if item == nil || item.Weight == 0 {
		return def
	}
	return item.Weight
}
