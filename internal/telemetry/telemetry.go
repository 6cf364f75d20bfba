package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

func newStdoutExporter(w io.Writer) (trace.SpanExporter, error) {
	return stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
}

func newHttpExporter(endpoint string) (trace.SpanExporter, error) {
	endpointWithoutProto := strings.Replace(endpoint, "http://", "", 1)
	return otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithEndpoint(endpointWithoutProto),
	)
}

func newResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("planner"),
	)
}

// NewProvider sets up the global trace provider. When no OTLP endpoint is
// configured, spans are pretty-printed to stdout instead.
func NewProvider(endpoint string) func() {
	var exporter trace.SpanExporter
	var err error

	if endpoint != "" {
		exporter, err = newHttpExporter(endpoint)
	} else {
		exporter, err = newStdoutExporter(os.Stdout)
	}
	if err != nil {
		slog.Error("Unable to create trace exporter", slog.Any("error", err))
		return func() {}
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(newResource()),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Error("Unable to shutdown trace provider", slog.Any("error", err))
		}
	}
}
