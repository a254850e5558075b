// Package trace provides distributed tracing for replytune.
// It wraps the OpenTelemetry SDK and exports spans to jaeger, zipkin or
// an OTLP collector. Components receive a Tracer through their constructors.
package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// ============================================================================
// Tracer Interface
// ============================================================================

// Tracer defines the distributed tracing interface
type Tracer interface {
	// Start creates a new span
	Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span)

	// GetTraceID returns trace ID from context
	GetTraceID(ctx context.Context) string

	// InjectContext injects trace context into carrier
	InjectContext(ctx context.Context, carrier propagation.TextMapCarrier)

	// ExtractContext extracts trace context from carrier
	ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context

	// Shutdown flushes pending spans and stops the exporter
	Shutdown(ctx context.Context) error
}

// TracerConfig defines tracer configuration
type TracerConfig struct {
	// Service name
	ServiceName string

	// Service version
	ServiceVersion string

	// Environment (development, staging, production)
	Environment string

	// Provider (jaeger, zipkin, otlp)
	Provider string

	// Endpoint for exporter
	Endpoint string

	// Sampling rate (0.0 - 1.0)
	SamplingRate float64
}

// ============================================================================
// OpenTelemetry Tracer Implementation
// ============================================================================

// OtelTracer wraps an OpenTelemetry tracer provider
type OtelTracer struct {
	tracer     trace.Tracer
	provider   *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
}

// NewTracer creates a tracer exporting to the configured provider
func NewTracer(cfg TracerConfig) (*OtelTracer, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Provider {
	case "jaeger":
		exporter, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	case "zipkin":
		exporter, err = zipkin.New(cfg.Endpoint)
	case "otlp":
		exporter, err = otlptrace.New(context.Background(), otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", cfg.Provider, err)
	}

	return NewTracerWithExporter(cfg, exporter, true)
}

// NewTracerWithExporter creates a tracer around an existing exporter.
// Synchronous export is used by tests with an in-memory exporter.
func NewTracerWithExporter(cfg TracerConfig, exporter sdktrace.SpanExporter, batch bool) (*OtelTracer, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	processor := sdktrace.WithSyncer(exporter)
	if batch {
		processor = sdktrace.WithBatcher(exporter)
	}

	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
	)

	return &OtelTracer{
		tracer:   tp.Tracer(cfg.ServiceName, trace.WithInstrumentationVersion(cfg.ServiceVersion)),
		provider: tp,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}, nil
}

// Start creates a new span
func (t *OtelTracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName, opts...)
}

// GetTraceID returns trace ID from context
func (t *OtelTracer) GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.HasTraceID() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// InjectContext injects trace context into carrier
func (t *OtelTracer) InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	t.propagator.Inject(ctx, carrier)
}

// ExtractContext extracts trace context from carrier
func (t *OtelTracer) ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return t.propagator.Extract(ctx, carrier)
}

// Shutdown flushes pending spans and stops the exporter
func (t *OtelTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// ============================================================================
// Span Helpers
// ============================================================================

// RecordSpanError records err on the span in ctx and marks it failed
func RecordSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the span in ctx
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// StringAttr creates a string attribute
func StringAttr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// IntAttr creates an int attribute
func IntAttr(key string, value int) attribute.KeyValue {
	return attribute.Int(key, value)
}

// Float64Attr creates a float64 attribute
func Float64Attr(key string, value float64) attribute.KeyValue {
	return attribute.Float64(key, value)
}

// BoolAttr creates a bool attribute
func BoolAttr(key string, value bool) attribute.KeyValue {
	return attribute.Bool(key, value)
}

// SpanKindServer marks a span as an inbound request
func SpanKindServer() trace.SpanStartOption {
	return trace.WithSpanKind(trace.SpanKindServer)
}

// SpanKindClient marks a span as an outbound call
func SpanKindClient() trace.SpanStartOption {
	return trace.WithSpanKind(trace.SpanKindClient)
}

// ============================================================================
// HTTP Headers Carrier
// ============================================================================

// HTTPHeadersCarrier adapts HTTP headers to propagation.TextMapCarrier
type HTTPHeadersCarrier map[string][]string

// Get returns the first value for key
func (c HTTPHeadersCarrier) Get(key string) string {
	values := c[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Set replaces the values for key
func (c HTTPHeadersCarrier) Set(key, value string) {
	c[key] = []string{value}
}

// Keys lists the carrier keys
func (c HTTPHeadersCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// ============================================================================
// No-op Tracer
// ============================================================================

// NoopTracer is a tracer that does nothing
type NoopTracer struct{}

// NewNoopTracer creates a no-op tracer
func NewNoopTracer() Tracer {
	return &NoopTracer{}
}

func (t *NoopTracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

func (t *NoopTracer) GetTraceID(ctx context.Context) string { return "" }

func (t *NoopTracer) InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {}

func (t *NoopTracer) ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return ctx
}

func (t *NoopTracer) Shutdown(ctx context.Context) error { return nil }

//Personal.AI order the ending
