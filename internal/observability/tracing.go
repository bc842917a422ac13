package observability

import (
	"context"
	"fmt"
	"io"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies this process in exported spans
const ServiceName = "kanban-board-api"

// Tracing owns the tracer provider for the process lifetime
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracing sets up span export when tracing is enabled; otherwise every
// span is a no-op. Spans are written as JSON to w.
func NewTracing(ctx context.Context, cfg config.ObservabilityConfig, version string, w io.Writer) (*Tracing, error) {
	if !cfg.TracingEnabled {
		return &Tracing{tracer: tracenoop.NewTracerProvider().Tracer(ServiceName)}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.TracingSampleRate)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{provider: provider, tracer: provider.Tracer(ServiceName)}, nil
}

// Tracer returns the tracer handed to instrumented components
func (t *Tracing) Tracer() trace.Tracer {
	return t.tracer
}

// Enabled reports whether spans are exported
func (t *Tracing) Enabled() bool {
	return t.provider != nil
}

// Shutdown flushes pending spans
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}
