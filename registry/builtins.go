package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-handle/handlers"
	"github.com/saiset-co/sai-handle/logger"
	"github.com/saiset-co/sai-handle/types"
)

// Deps are the shared collaborators of the built-in handlers. Nil fields
// fall back to a no-op logger and the global registerer and tracer.
type Deps struct {
	Logger     types.Logger
	Registerer prometheus.Registerer
	Tracer     trace.Tracer
}

// RegisterBuiltins registers every built-in handler enabled in config. The
// registry is left open so callers can add their own handlers before
// finalizing it.
func RegisterBuiltins[C any](r *Registry[C, error], next types.Delegate[C, error], config *types.HandlersConfig, deps Deps) error {
	if config == nil {
		return nil
	}

	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}

	var builtins []types.Middleware[C, error]

	if enabled(config.Recovery) {
		builtins = append(builtins, handlers.NewRecovery(next, deps.Logger, config.Recovery, handlers.Failure))
	}

	if enabled(config.Logging) {
		builtins = append(builtins, handlers.NewLogging(next, deps.Logger, config.Logging))
	}

	if enabled(config.Metrics) {
		metrics, err := handlers.NewMetrics(next, deps.Logger, deps.Registerer, config.Metrics)
		if err != nil {
			return types.WrapError(err, "failed to create metrics handler")
		}
		builtins = append(builtins, metrics)
	}

	if enabled(config.Tracing) {
		builtins = append(builtins, handlers.NewTracing(next, deps.Logger, deps.Tracer, config.Tracing))
	}

	if enabled(config.Timeout) {
		builtins = append(builtins, handlers.NewTimeout(next, deps.Logger, config.Timeout))
	}

	if enabled(config.RateLimit) {
		builtins = append(builtins, handlers.NewRateLimit(next, deps.Logger, config.RateLimit, handlers.Failure))
	}

	for _, m := range builtins {
		if err := r.Use(m); err != nil {
			return err
		}

		deps.Logger.Info("Built-in handler registered", zap.String("name", m.Name()), zap.Int("weight", m.Weight()))
	}

	return nil
}

func enabled(item *types.HandlerItemConfig) bool {
	return item != nil && item.Enabled
}
