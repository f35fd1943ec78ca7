package tracing

import (
	"context"
	"testing"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/jaeger-client-go"
)

func TestNewTracerDisabled(t *testing.T) {
	tracer, closer, err := NewTracer(logs.NewNopLogger(), Config{})
	require.NoError(t, err)
	assert.IsType(t, opentracing.NoopTracer{}, tracer)
	assert.NoError(t, closer.Close())
}

func TestTraceIDContexter(t *testing.T) {
	assert.Nil(t, TraceIDContexter(context.Background()))

	tracer, closer := jaeger.NewTracer("hello-service", jaeger.NewConstSampler(true), jaeger.NewNullReporter())
	defer closer.Close()

	span := tracer.StartSpan("prime")
	defer span.Finish()
	ctx := opentracing.ContextWithSpan(context.Background(), span)

	kv := TraceIDContexter(ctx)
	require.Len(t, kv, 2)
	assert.Equal(t, "traceId", kv[0])
	assert.Equal(t, span.Context().(jaeger.SpanContext).TraceID().String(), kv[1])
}
