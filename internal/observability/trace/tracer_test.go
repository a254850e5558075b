package trace

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*OtelTracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewTracerWithExporter(TracerConfig{
		ServiceName:    "replytune",
		ServiceVersion: "test",
		Environment:    "test",
		SamplingRate:   1,
	}, exporter, false)
	require.NoError(t, err)
	return tracer, exporter
}

func TestOtelTracer_Spans(t *testing.T) {
	tracer, exporter := newRecordingTracer(t)

	ctx, parent := tracer.Start(context.Background(), "TrainingLoop.Run")
	_, child := tracer.Start(ctx, "TrainingLoop.sample")
	SetSpanAttributes(ctx, IntAttr("epochs", 3))
	child.End()
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "TrainingLoop.sample", spans[0].Name)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].Parent.TraceID())
	assert.NotEmpty(t, tracer.GetTraceID(ctx))
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestRecordSpanError(t *testing.T) {
	tracer, exporter := newRecordingTracer(t)

	ctx, span := tracer.Start(context.Background(), "Generator.Generate")
	RecordSpanError(ctx, errors.New("upstream 503"))
	RecordSpanError(ctx, nil)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "upstream 503", spans[0].Status.Description)
}

func TestPropagation(t *testing.T) {
	tracer, _ := newRecordingTracer(t)

	ctx, span := tracer.Start(context.Background(), "client")
	defer span.End()

	carrier := HTTPHeadersCarrier(http.Header{})
	tracer.InjectContext(ctx, carrier)
	assert.NotEmpty(t, carrier.Get("traceparent"))

	extracted := tracer.ExtractContext(context.Background(), carrier)
	assert.Equal(t, tracer.GetTraceID(ctx), tracer.GetTraceID(extracted))
}

func TestNewTracer_UnsupportedProvider(t *testing.T) {
	_, err := NewTracer(TracerConfig{Provider: "datadog"})
	assert.Error(t, err)
}

func TestNoopTracer(t *testing.T) {
	tracer := NewNoopTracer()
	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	assert.Equal(t, "", tracer.GetTraceID(ctx))
	assert.NoError(t, tracer.Shutdown(ctx))
}
