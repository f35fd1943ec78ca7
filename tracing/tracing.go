// Package tracing builds the opentracing Tracer used by the HTTP server and the peer client.
package tracing

import (
	"context"
	"fmt"
	"io"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Config is the tracing section of the application YAML.
type Config struct {
	Enabled       bool    `yaml:"enabled"`
	ServiceName   string  `yaml:"serviceName"`
	AgentHostPort string  `yaml:"agentHostPort"`
	SamplerType   string  `yaml:"samplerType"`
	SamplerParam  float64 `yaml:"samplerParam"`
	LogSpans      bool    `yaml:"logSpans"`
}

// NewTracer returns a Jaeger tracer, or a no-op tracer when tracing is disabled. The closer
// flushes buffered spans.
func NewTracer(logger logs.Logger, cfg Config) (opentracing.Tracer, io.Closer, error) {
	if !cfg.Enabled {
		return opentracing.NoopTracer{}, nopCloser{}, nil
	}

	samplerType := cfg.SamplerType
	if samplerType == "" {
		samplerType = jaeger.SamplerTypeConst
		if cfg.SamplerParam == 0 {
			cfg.SamplerParam = 1
		}
	}

	jc := jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  samplerType,
			Param: cfg.SamplerParam,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:           cfg.LogSpans,
			LocalAgentHostPort: cfg.AgentHostPort,
		},
	}

	tracer, closer, err := jc.NewTracer(jaegercfg.Logger(jaegerLogger{logger.WithComponent("tracer")}))
	if err != nil {
		return nil, nil, errors.Wrap(err, "error creating jaeger tracer")
	}
	return tracer, closer, nil
}

// TraceIDContexter adds "traceId" to log lines written inside a sampled Jaeger span.
func TraceIDContexter(ctx context.Context) []any {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return nil
	}
	if sc, ok := span.Context().(jaeger.SpanContext); ok {
		return []any{"traceId", sc.TraceID().String()}
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type jaegerLogger struct {
	logger logs.Logger
}

func (l jaegerLogger) Error(msg string) {
	l.logger.Error(context.Background(), msg)
}

func (l jaegerLogger) Infof(msg string, args ...interface{}) {
	l.logger.Info(context.Background(), fmt.Sprintf(msg, args...))
}
