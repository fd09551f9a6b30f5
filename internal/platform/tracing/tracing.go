// Package tracing configures the OpenTelemetry tracer provider and offers
// small helpers for service spans.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.opentelemetry.io/otel/trace"

	dErrors "provenance/pkg/domain-errors"
)

// Init installs a global tracer provider. With an empty endpoint spans are
// created but never exported.
func Init(ctx context.Context, serviceName, env, endpoint string) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	if endpoint == "" {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(env),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// End finishes span, marking it failed for errors the caller cannot fix.
// Client errors (not found, forbidden, ...) are recorded as events only.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		switch dErrors.CodeOf(err) {
		case dErrors.CodeInternal, dErrors.CodeIntegrityViolation, dErrors.CodeTimeout:
			span.SetStatus(codes.Error, err.Error())
		default:
			span.SetAttributes(attribute.String("error.type", string(dErrors.CodeOf(err))))
		}
	}
	span.End()
}
