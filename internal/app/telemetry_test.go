package app

import (
	"context"
	"testing"

	"github.com/Freeeeeet/tutoring_scheduler/internal/dispatch"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func restoreGlobalTracerProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestNewTelemetry_Disabled(t *testing.T) {
	restoreGlobalTracerProvider(t)
	ctx := context.Background()

	tel, err := NewTelemetry(ctx, TelemetryConfig{ServiceName: "tutoring-scheduler"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tel.Enabled())
	assert.NotNil(t, tel.Provider())
	assert.NoError(t, tel.ForceFlush(ctx))
	assert.NoError(t, tel.Shutdown(ctx))
}

func TestTelemetry_ExportsDispatchSpans(t *testing.T) {
	restoreGlobalTracerProvider(t)
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()

	tel, err := newTelemetry(exporter, TelemetryConfig{SamplingRatio: 1, ServiceName: "tutoring-scheduler"}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, tel.Enabled())
	assert.Same(t, tel.provider, otel.GetTracerProvider())

	bus := dispatch.NewBus(dispatch.Tracing(tel.Provider()))
	bus.Register(dispatch.KindGetSlot, dispatch.Handle(func(_ context.Context, req dispatch.GetSlot) (string, error) {
		return req.ID.String(), nil
	}))

	_, err = bus.Dispatch(ctx, dispatch.GetSlot{ID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, tel.ForceFlush(ctx))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "dispatch.get_slot", spans[0].Name)
	name, ok := spans[0].Resource.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "tutoring-scheduler", name.AsString())

	require.NoError(t, tel.Shutdown(ctx))
}
