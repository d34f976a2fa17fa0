package observer

import (
	"context"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	cleave "github.com/avesind/cleave"
)

// Runner is satisfied by *cleave.Agent and by ObservedAgent itself, so
// wrappers compose.
type Runner interface {
	Run(ctx context.Context, instruction, contextText string) (cleave.Result, error)
}

// ObservedAgent wraps a Runner to emit a span and metrics per run.
type ObservedAgent struct {
	inner Runner
	inst  *Instruments
}

var _ Runner = (*ObservedAgent)(nil)

// WrapAgent returns an instrumented Runner that emits run telemetry.
func WrapAgent(inner Runner, inst *Instruments) *ObservedAgent {
	return &ObservedAgent{inner: inner, inst: inst}
}

// Run wraps the inner Run with a cleave.run span and records run count,
// duration, and chunk statistics.
func (o *ObservedAgent) Run(ctx context.Context, instruction, contextText string) (cleave.Result, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "cleave.run", trace.WithAttributes(
		attribute.Int("input.length", utf8.RuneCountInString(contextText)),
	))
	defer span.End()
	start := time.Now()

	result, err := o.inner.Run(ctx, instruction, contextText)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("chunks", result.Stats.ChunkCount),
			attribute.Int("output.length", result.Stats.OutputLength),
		)
	}

	attrs := metric.WithAttributes(attribute.String("status", status))
	o.inst.Runs.Add(ctx, 1, attrs)
	o.inst.RunDuration.Record(ctx, durationMs, attrs)
	if err == nil {
		o.inst.ChunksProduced.Add(ctx, int64(result.Stats.ChunkCount), attrs)
		for _, chunk := range result.Chunks {
			o.inst.ChunkLength.Record(ctx, int64(utf8.RuneCountInString(chunk)))
		}
	}

	return result, err
}
