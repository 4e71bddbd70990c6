package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

func TestInitOTelState_Unconfigured(t *testing.T) {
	state, err := initOTelState(OTelOptions{})
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStabilityValidator_OTelSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	cfg := testConfig(StrategyReplay)
	v, err := NewStabilityValidator(cfg, &recordingExecutor{}, detectPattern(true),
		WithOTel(OTelOptions{
			Tracer:        tp.Tracer("test"),
			MeterProvider: noop.NewMeterProvider(),
		}))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), testPayload(), nil)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "validation.run", spans[0].Name)

	attrs := make(map[string]any)
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "stable", attrs["validation.level"])
	assert.Equal(t, "replay", attrs["validation.strategy"])
}

func TestStabilityValidator_OTelNoop(t *testing.T) {
	cfg := testConfig(StrategyReplay)
	v, err := NewStabilityValidator(cfg, &recordingExecutor{}, detectPattern(true),
		WithOTel(OTelOptions{
			Tracer:        nooptrace.NewTracerProvider().Tracer("test"),
			MeterProvider: noop.NewMeterProvider(),
		}))
	require.NoError(t, err)

	result, err := v.Validate(context.Background(), testPayload(), nil)
	require.NoError(t, err)
	assert.Equal(t, LevelStable, result.Level)
}
