package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/saiset-co/sai-handle/chain"
	"github.com/saiset-co/sai-handle/handlers"
	"github.com/saiset-co/sai-handle/logger"
	"github.com/saiset-co/sai-handle/types"
)

type task struct {
	hits  int
	chain *chain.Chain[task, error]
}

func (t *task) Pass() string { return t.chain.Pass() }

func newTask() *task {
	return &task{chain: chain.New[task, error]()}
}

var next = chain.Via(func(t *task) *chain.Chain[task, error] { return t.chain })

func hit() types.Handler[task, error] {
	return types.HandlerFunc[task, error](func(t *task) *types.Future[error] {
		t.hits++
		return next(t)
	})
}

func fail(err error) types.Handler[task, error] {
	return types.Func[task, error](func(context.Context, *task) error { return err })
}

func observed() (types.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewZapWrapper(zap.New(core)), logs
}

func run(t *testing.T, tk *task, hs ...types.Handler[task, error]) error {
	t.Helper()
	return chain.Run(context.Background(), tk, tk.chain, hs...)
}

func TestRecovery_ConvertsPanic(t *testing.T) {
	log, logs := observed()
	recovery := handlers.NewRecovery(next, log, nil, handlers.Failure)
	boom := types.Func[task, error](func(context.Context, *task) error { panic("boom") })

	tk := newTask()
	err := run(t, tk, recovery, hit(), boom, hit())

	require.ErrorIs(t, err, types.ErrPanicRecovered)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, tk.hits)

	entries := logs.FilterMessage("Recovered from panic").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, tk.Pass(), fields["pass"])
	assert.NotEmpty(t, fields["stack"])
}

func TestRecovery_WithoutStackTrace(t *testing.T) {
	log, logs := observed()
	item := &types.HandlerItemConfig{Enabled: true, Weight: 5, Params: map[string]interface{}{"stack_trace": false}}
	recovery := handlers.NewRecovery(next, log, item, handlers.Failure)
	boom := types.Func[task, error](func(context.Context, *task) error { panic("boom") })

	assert.Equal(t, 5, recovery.Weight())
	assert.Equal(t, "recovery", recovery.Name())

	err := run(t, newTask(), recovery, boom)
	require.ErrorIs(t, err, types.ErrPanicRecovered)

	entries := logs.FilterMessage("Recovered from panic").All()
	require.Len(t, entries, 1)
	_, hasStack := entries[0].ContextMap()["stack"]
	assert.False(t, hasStack)
}

func TestRecovery_PassesThrough(t *testing.T) {
	log, logs := observed()
	want := errors.New("plain failure")
	recovery := handlers.NewRecovery(next, log, nil, handlers.Failure)

	tk := newTask()
	assert.ErrorIs(t, run(t, tk, recovery, hit(), fail(want)), want)
	assert.Equal(t, 1, tk.hits)
	assert.Zero(t, logs.Len())
}

func TestLogging_Success(t *testing.T) {
	log, logs := observed()
	logging := handlers.NewLogging(next, log, nil)

	tk := newTask()
	require.NoError(t, run(t, tk, logging, hit()))
	assert.Equal(t, 1, tk.hits)

	started := logs.FilterMessage("Chain started").All()
	completed := logs.FilterMessage("Chain completed").All()
	require.Len(t, started, 1)
	require.Len(t, completed, 1)
	assert.Equal(t, zap.InfoLevel, completed[0].Level)
	assert.Equal(t, tk.Pass(), completed[0].ContextMap()["pass"])
	assert.Contains(t, completed[0].ContextMap(), "duration")
}

func TestLogging_Failure(t *testing.T) {
	log, logs := observed()
	item := &types.HandlerItemConfig{Params: map[string]interface{}{"log_level": "debug"}}
	logging := handlers.NewLogging(next, log, item)
	want := errors.New("nope")

	assert.ErrorIs(t, run(t, newTask(), logging, fail(want)), want)

	started := logs.FilterMessage("Chain started").All()
	require.Len(t, started, 1)
	assert.Equal(t, zap.DebugLevel, started[0].Level)

	failed := logs.FilterMessage("Chain failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zap.ErrorLevel, failed[0].Level)
	assert.Equal(t, "nope", failed[0].ContextMap()["error"])
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, status string) (float64, uint64) {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if labelValue(m, "status") != status {
				continue
			}
			if family.GetType() == dto.MetricType_HISTOGRAM {
				return m.GetHistogram().GetSampleSum(), m.GetHistogram().GetSampleCount()
			}
			return m.GetCounter().GetValue(), 0
		}
	}

	return 0, 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestMetrics_RecordsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	item := &types.HandlerItemConfig{Params: map[string]interface{}{"chain": "jobs"}}
	metrics, err := handlers.NewMetrics(next, logger.NewNop(), reg, item)
	require.NoError(t, err)

	require.NoError(t, run(t, newTask(), metrics, hit()))
	require.NoError(t, run(t, newTask(), metrics, hit()))
	require.Error(t, run(t, newTask(), metrics, fail(errors.New("x"))))

	ok, _ := counterValue(t, reg, "sai_handle_chain_calls_total", "ok")
	failed, _ := counterValue(t, reg, "sai_handle_chain_calls_total", "error")
	assert.Equal(t, 2.0, ok)
	assert.Equal(t, 1.0, failed)

	_, count := counterValue(t, reg, "sai_handle_chain_duration_seconds", "ok")
	assert.Equal(t, uint64(2), count)
}

func TestMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := handlers.NewMetrics(next, logger.NewNop(), reg, nil)
	require.NoError(t, err)
	second, err := handlers.NewMetrics(next, logger.NewNop(), reg, nil)
	require.NoError(t, err)

	require.NoError(t, run(t, newTask(), first))
	require.NoError(t, run(t, newTask(), second))

	ok, _ := counterValue(t, reg, "sai_handle_chain_calls_total", "ok")
	assert.Equal(t, 2.0, ok)
}

func TestTracing_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracing := handlers.NewTracing(next, logger.NewNop(), provider.Tracer("test"), nil)

	var inner trace.SpanContext
	probe := types.Func[task, error](func(ctx context.Context, _ *task) error {
		inner = trace.SpanFromContext(ctx).SpanContext()
		return nil
	})

	tk := newTask()
	require.NoError(t, run(t, tk, tracing, probe))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "chain.traverse", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("chain.pass", tk.Pass()))
	assert.Equal(t, spans[0].SpanContext().SpanID(), inner.SpanID())
}

func TestTracing_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	item := &types.HandlerItemConfig{Params: map[string]interface{}{"span_name": "jobs.run"}}
	tracing := handlers.NewTracing(next, logger.NewNop(), provider.Tracer("test"), item)

	require.Error(t, run(t, newTask(), tracing, fail(errors.New("bad"))))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "jobs.run", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "bad", spans[0].Status().Description)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	item := &types.HandlerItemConfig{Params: map[string]interface{}{"timeout_ms": 50}}
	timeout := handlers.NewTimeout(next, logger.NewNop(), item)

	var deadline time.Time
	var hasDeadline bool
	probe := types.Func[task, error](func(ctx context.Context, _ *task) error {
		deadline, hasDeadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := run(t, newTask(), timeout, probe)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(50*time.Millisecond), deadline, 40*time.Millisecond)
}

func TestTimeout_Disabled(t *testing.T) {
	item := &types.HandlerItemConfig{Params: map[string]interface{}{"timeout_ms": 0}}
	timeout := handlers.NewTimeout(next, logger.NewNop(), item)

	probe := types.Func[task, error](func(ctx context.Context, _ *task) error {
		if _, ok := ctx.Deadline(); ok {
			return errors.New("unexpected deadline")
		}
		return nil
	})

	require.NoError(t, run(t, newTask(), timeout, probe))
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	log, logs := observed()
	item := &types.HandlerItemConfig{Params: map[string]interface{}{
		"requests_per_second": 0.001,
		"burst":               1,
	}}
	limiter := handlers.NewRateLimit(next, log, item, handlers.Failure)

	first := newTask()
	require.NoError(t, run(t, first, limiter, hit()))
	assert.Equal(t, 1, first.hits)

	second := newTask()
	assert.ErrorIs(t, run(t, second, limiter, hit()), types.ErrRateLimited)
	assert.Zero(t, second.hits)
	assert.Equal(t, 1, logs.FilterMessage("Chain rate limited").Len())
}

func TestRateLimit_WaitHonoursContext(t *testing.T) {
	item := &types.HandlerItemConfig{Params: map[string]interface{}{
		"requests_per_second": 1,
		"burst":               1,
		"wait":                true,
	}}
	limiter := handlers.NewRateLimit(next, logger.NewNop(), item, handlers.Failure)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tk := newTask()
	err := chain.Run(ctx, tk, tk.chain, limiter, hit())
	assert.ErrorIs(t, err, types.ErrRateLimited)
	assert.Zero(t, tk.hits)
}

func TestCounter_RetainsStateAcrossPasses(t *testing.T) {
	a := handlers.NewCounter(next, "a", 1)
	b := handlers.NewCounter(next, "b", 2)

	tk := newTask()
	for pass := 1; pass <= 3; pass++ {
		require.NoError(t, run(t, tk, a, hit(), b))
		assert.Equal(t, pass, tk.hits)
	}

	assert.Equal(t, int64(3), a.Calls())
	assert.Equal(t, int64(3), b.Calls())

	clone := a.Clone()
	assert.Equal(t, "a", clone.Name())
	assert.Equal(t, 1, clone.Weight())
	assert.Zero(t, clone.Calls())
}

func TestWeights_UnsetFallsBackToDefault(t *testing.T) {
	params := &types.HandlerItemConfig{Enabled: true, Params: map[string]interface{}{"log_level": "debug"}}
	log := logger.NewNop()

	metrics, err := handlers.NewMetrics(next, log, prometheus.NewRegistry(), params)
	require.NoError(t, err)

	weights := map[string]int{
		"recovery":   handlers.NewRecovery(next, log, params, handlers.Failure).Weight(),
		"logging":    handlers.NewLogging(next, log, params).Weight(),
		"metrics":    metrics.Weight(),
		"tracing":    handlers.NewTracing(next, log, nil, params).Weight(),
		"timeout":    handlers.NewTimeout(next, log, params).Weight(),
		"rate_limit": handlers.NewRateLimit(next, log, params, handlers.Failure).Weight(),
	}

	assert.Equal(t, map[string]int{
		"recovery": 10, "logging": 20, "metrics": 30, "tracing": 40, "timeout": 50, "rate_limit": 60,
	}, weights)
}

func TestRateLimit_NonPositiveParamsUseDefaults(t *testing.T) {
	log, logs := observed()
	item := &types.HandlerItemConfig{Params: map[string]interface{}{
		"requests_per_second": 10,
		"burst":               0,
	}}
	limiter := handlers.NewRateLimit(next, log, item, handlers.Failure)

	assert.Equal(t, 1, logs.FilterMessage("Invalid rate limit params, using defaults").Len())

	for range 3 {
		tk := newTask()
		require.NoError(t, run(t, tk, limiter, hit()))
		assert.Equal(t, 1, tk.hits)
	}
}
