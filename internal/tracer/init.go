package tracer

import (
	"context"
	"log"

	"ai-collab-be/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitTracer wires an OTLP HTTP exporter (Jaeger accepts it on 4318) and
// returns the provider's shutdown func. When tracing is off the returned func
// does nothing and otelfiber records into the global no-op provider.
func InitTracer(cfg *config.Config) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !cfg.Tracing.Enabled {
		log.Println("OpenTelemetry tracing is disabled (set OTEL_ENABLED=true to enable)")
		return noop
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.Tracing.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("Warning: Failed to create OTLP exporter: %v (tracing disabled)", err)
		return noop
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.Tracing.ServiceName),
		semconv.DeploymentEnvironmentKey.String(cfg.App.Environment),
	}
	// Gateway instances share a service name; the instance id tells their spans apart.
	if cfg.App.InstanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceIDKey.String(cfg.App.InstanceID))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
	)
	otel.SetTracerProvider(tp)
	log.Printf("OpenTelemetry tracer initialized (service: %s, endpoint: %s)", cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)

	return tp.Shutdown
}
