package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/saiset-co/sai-handle/types"
)

type MetricsConfig struct {
	Namespace string `json:"namespace"`
	Subsystem string `json:"subsystem"`
	Chain     string `json:"chain"`
}

// Metrics counts and times every traversal of the rest of the chain, labelled
// by chain name and status ("ok" or "error").
type Metrics[C, O any] struct {
	next          types.Delegate[C, O]
	metricsConfig *MetricsConfig
	calls         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	weight        int
}

func NewMetrics[C, O any](next types.Delegate[C, O], logger types.Logger, registerer prometheus.Registerer, item *types.HandlerItemConfig) (*Metrics[C, O], error) {
	metricsConfig := &MetricsConfig{
		Namespace: "sai_handle",
		Chain:     "default",
	}
	decodeParams(item, metricsConfig, logger, "metrics")

	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsConfig.Namespace,
		Subsystem: metricsConfig.Subsystem,
		Name:      "chain_calls_total",
		Help:      "Number of chain traversals by status",
	}, []string{"chain", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsConfig.Namespace,
		Subsystem: metricsConfig.Subsystem,
		Name:      "chain_duration_seconds",
		Help:      "Duration of chain traversals in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain", "status"})

	var err error
	if calls, err = register(registerer, calls); err != nil {
		return nil, types.WrapError(err, "failed to register chain calls counter")
	}
	if duration, err = register(registerer, duration); err != nil {
		return nil, types.WrapError(err, "failed to register chain duration histogram")
	}

	return &Metrics[C, O]{
		next:          next,
		metricsConfig: metricsConfig,
		calls:         calls,
		duration:      duration,
		weight:        weightOf(item, 30),
	}, nil
}

// register reuses an already registered collector of the same shape.
func register[T prometheus.Collector](registerer prometheus.Registerer, c T) (T, error) {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics[C, O]) Name() string { return "metrics" }
func (m *Metrics[C, O]) Weight() int  { return m.weight }

func (m *Metrics[C, O]) Call(cx *C) *types.Future[O] {
	return types.Async(func(ctx context.Context) O {
		start := time.Now()
		out := m.next(cx).Await(ctx)

		status := "ok"
		if errorOf(out) != nil {
			status = "error"
		}

		m.calls.WithLabelValues(m.metricsConfig.Chain, status).Inc()
		m.duration.WithLabelValues(m.metricsConfig.Chain, status).Observe(time.Since(start).Seconds())

		return out
	})
}
