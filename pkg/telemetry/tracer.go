package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"
)

// TracingConfig configures OpenTelemetry tracing for a provider.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	Enabled bool `yaml:"enabled"`

	// Exporter specifies the trace exporter (otlp, stderr, none).
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// SamplingRate is the trace sampling rate (0.0 to 1.0).
	SamplingRate float64 `yaml:"sampling_rate"`

	// Insecure disables TLS for the OTLP exporter connection.
	Insecure bool `yaml:"insecure"`
}

// DefaultTracingConfig returns the tracing configuration a provider binary
// starts from: disabled, with sensible values should it be switched on.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:      false,
		Exporter:     "stderr",
		SamplingRate: 1.0,
		Insecure:     true,
	}
}

// Tracer wraps the OpenTelemetry tracer for provider operations.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer creates a tracer for a provider. Debug trace output goes to
// stderr, never stdout: the handshake stream must stay clean.
func NewTracer(cfg TracingConfig, providerName, providerVersion string) (*Tracer, error) {
	if !cfg.Enabled {
		return &Tracer{
			provider: sdktrace.NewTracerProvider(),
			tracer:   otel.Tracer(providerName),
		}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(providerName),
			semconv.ServiceVersionKey.String(providerVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "otlp":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		exporter, err = otlptracegrpc.New(context.Background(), opts...)
	case "stderr":
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	case "none":
		exporter = nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(providerName),
	}, nil
}

// StartOperation begins a span for one resource operation.
func (t *Tracer) StartOperation(ctx context.Context, operation, resourceType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "provider."+operation,
		trace.WithAttributes(
			attribute.String("provider.operation", operation),
			attribute.String("resource.type", resourceType),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes and stops the tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
