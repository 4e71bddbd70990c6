package validation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/verdict/attack"
)

// OTelOptions configures OpenTelemetry integration for validation runs.
// Both fields are optional; leaving one nil disables that signal.
type OTelOptions struct {
	// Tracer creates spans for validation runs.
	Tracer trace.Tracer

	// MeterProvider supplies the meter used to create validation metrics.
	MeterProvider metric.MeterProvider
}

// otelState holds the tracer and the metric instruments for a validator.
// Instruments are created once at construction and reused for all runs.
type otelState struct {
	tracer trace.Tracer

	// consistencyHistogram records per-run consistency (0.0 to 1.0)
	consistencyHistogram metric.Float64Histogram

	// durationHistogram records run duration in milliseconds
	durationHistogram metric.Float64Histogram

	// runCounter increments for each validation run performed
	runCounter metric.Int64Counter
}

// initOTelState creates the metric instruments. Returns nil state when
// neither signal is configured.
func initOTelState(opts OTelOptions) (*otelState, error) {
	if opts.Tracer == nil && opts.MeterProvider == nil {
		return nil, nil
	}

	state := &otelState{tracer: opts.Tracer}
	if opts.MeterProvider == nil {
		return state, nil
	}

	meter := opts.MeterProvider.Meter("github.com/zero-day-ai/verdict/validation")
	var err error

	state.consistencyHistogram, err = meter.Float64Histogram(
		"validation.consistency",
		metric.WithDescription("Validation run consistency from 0.0 (never reproduced) to 1.0 (always reproduced)"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create consistency histogram: %w", err)
	}

	state.durationHistogram, err = meter.Float64Histogram(
		"validation.duration",
		metric.WithDescription("Validation run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	state.runCounter, err = meter.Int64Counter(
		"validation.runs",
		metric.WithDescription("Number of validation runs performed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create run counter: %w", err)
	}

	return state, nil
}

// recordOTelRun creates a span and records metrics for a completed run.
// Returns silently when OTel is not configured.
func (v *StabilityValidator) recordOTelRun(ctx context.Context, payload attack.Payload, result StabilityResult, elapsed time.Duration) {
	if v.otel == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("payload.id", payload.ID),
		attribute.String("payload.category", payload.Category.String()),
		attribute.String("validation.strategy", result.StrategyUsed.String()),
		attribute.String("validation.level", result.Level.String()),
		attribute.Float64("validation.consistency", result.Consistency),
		attribute.Int("validation.attempts", result.ValidationCount),
	}

	if v.otel.tracer != nil {
		var span trace.Span
		ctx, span = v.otel.tracer.Start(ctx, "validation.run")
		defer span.End()
		span.SetAttributes(attrs...)
		if result.IsStable {
			span.SetStatus(codes.Ok, fmt.Sprintf("Reproduced %d/%d times", result.SuccessfulCount, result.ValidationCount))
		} else {
			span.SetStatus(codes.Error, fmt.Sprintf("Classified %s (%d/%d reproduced)", result.Level, result.SuccessfulCount, result.ValidationCount))
		}
	}

	opts := metric.WithAttributes(
		attribute.String("payload.category", payload.Category.String()),
		attribute.String("validation.strategy", result.StrategyUsed.String()),
		attribute.String("validation.level", result.Level.String()),
	)
	if v.otel.consistencyHistogram != nil {
		v.otel.consistencyHistogram.Record(ctx, result.Consistency, opts)
	}
	if v.otel.durationHistogram != nil {
		v.otel.durationHistogram.Record(ctx, float64(elapsed.Milliseconds()), opts)
	}
	if v.otel.runCounter != nil {
		v.otel.runCounter.Add(ctx, 1, opts)
	}
}
