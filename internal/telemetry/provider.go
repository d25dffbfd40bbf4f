// Package telemetry installs the OpenTelemetry trace provider.
package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/mrkirby153/todoist-bot/internal/config"
	"github.com/mrkirby153/todoist-bot/internal/log"
)

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

// Setup registers a global OTLP/HTTP trace provider for serviceName.
//
// Tracing is opt-in: when telemetry is disabled or has no endpoint, Setup
// returns a no-op Shutdown and the global no-op provider stays in place.
// The endpoint is either a full URL or a plaintext host:port.
func Setup(ctx context.Context, cfg config.TelemetryConfig, serviceName, version string) (Shutdown, error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop, nil
	}

	var endpoint otlptracehttp.Option
	if strings.Contains(cfg.Endpoint, "://") {
		endpoint = otlptracehttp.WithEndpointURL(cfg.Endpoint)
	} else {
		endpoint = otlptracehttp.WithEndpoint(cfg.Endpoint)
	}
	opts := []otlptracehttp.Option{endpoint}
	if !strings.HasPrefix(cfg.Endpoint, "https://") {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	log.WithComponent("telemetry").Info("tracing enabled", "endpoint", cfg.Endpoint)

	return tp.Shutdown, nil
}
