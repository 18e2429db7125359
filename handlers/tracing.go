package handlers

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/saiset-co/sai-handle/types"
)

const tracerName = "github.com/saiset-co/sai-handle"

type TracingConfig struct {
	SpanName string `json:"span_name"`
}

// Tracing wraps the rest of the chain in a span. Handlers further down see
// the span through the ctx their futures are awaited with.
type Tracing[C, O any] struct {
	next          types.Delegate[C, O]
	tracer        trace.Tracer
	tracingConfig *TracingConfig
	weight        int
}

// NewTracing uses the global TracerProvider when tracer is nil.
func NewTracing[C, O any](next types.Delegate[C, O], logger types.Logger, tracer trace.Tracer, item *types.HandlerItemConfig) *Tracing[C, O] {
	tracingConfig := &TracingConfig{
		SpanName: "chain.traverse",
	}
	decodeParams(item, tracingConfig, logger, "tracing")

	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Tracing[C, O]{
		next:          next,
		tracer:        tracer,
		tracingConfig: tracingConfig,
		weight:        weightOf(item, 40),
	}
}

func (t *Tracing[C, O]) Name() string { return "tracing" }
func (t *Tracing[C, O]) Weight() int  { return t.weight }

func (t *Tracing[C, O]) Call(cx *C) *types.Future[O] {
	return types.Async(func(ctx context.Context) O {
		opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
		if pass := passOf(cx); pass != "" {
			opts = append(opts, trace.WithAttributes(attribute.String("chain.pass", pass)))
		}

		ctx, span := t.tracer.Start(ctx, t.tracingConfig.SpanName, opts...)
		defer span.End()

		out := t.next(cx).Await(ctx)

		if err := errorOf(out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return out
	})
}
