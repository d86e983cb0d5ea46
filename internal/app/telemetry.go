package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TelemetryConfig параметры экспорта трейсов. Пустой Endpoint выключает экспорт.
type TelemetryConfig struct {
	Endpoint      string
	Insecure      bool
	SamplingRatio float64
	ServiceName   string
}

// Telemetry владеет TracerProvider процесса
type Telemetry struct {
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
}

// NewTelemetry поднимает OTLP/gRPC экспорт и ставит глобальный провайдер.
// Без endpoint остаётся глобальный no-op провайдер.
func NewTelemetry(ctx context.Context, cfg TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	if cfg.Endpoint == "" {
		logger.Info("Tracing export disabled, OTEL_EXPORTER_OTLP_ENDPOINT is not set")
		return &Telemetry{logger: logger}, nil
	}

	var opts []otlptracegrpc.Option
	if strings.Contains(cfg.Endpoint, "://") {
		opts = append(opts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
	} else {
		opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	t, err := newTelemetry(exporter, cfg, logger)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, err
	}

	logger.Info("Tracing export enabled",
		zap.String("endpoint", cfg.Endpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return t, nil
}

func newTelemetry(exporter sdktrace.SpanExporter, cfg TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRatio >= 1:
		sampler = sdktrace.AlwaysSample()
	case cfg.SamplingRatio <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRatio)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Telemetry{provider: provider, logger: logger}, nil
}

// Provider провайдер для middleware; при выключенном экспорте глобальный
func (t *Telemetry) Provider() trace.TracerProvider {
	if t.provider == nil {
		return otel.GetTracerProvider()
	}
	return t.provider
}

func (t *Telemetry) Enabled() bool {
	return t.provider != nil
}

func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.ForceFlush(ctx)
}

// Shutdown досылает накопленные span'ы
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	t.logger.Info("Tracer provider stopped")
	return nil
}
