package tracing

import (
	"context"
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

type Config struct {
	Enabled bool
	Host    string
	Port    int
}

// InitTracer ставит глобальный трейсер. При выключенной трассировке это NoopTracer.
func InitTracer(service string, conf Config) (opentracing.Tracer, io.Closer, error) {
	if !conf.Enabled {
		t := opentracing.NoopTracer{}
		opentracing.SetGlobalTracer(t)
		return t, io.NopCloser(nil), nil
	}

	cfg := &jCfg.Configuration{
		ServiceName: service,
		Sampler: &jCfg.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &jCfg.ReporterConfig{
			LogSpans:           true,
			LocalAgentHostPort: fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		},
	}

	tracer, closer, err := cfg.NewTracer(jCfg.Metrics(metrics.NullFactory))
	if err != nil {
		return nil, nil, err
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}

// Finish закрывает спан, помечая ошибку если она есть.
func Finish(span opentracing.Span, err error) {
	if err != nil {
		ext.Error.Set(span, true)
		span.LogKV("error", err.Error())
	}
	span.Finish()
}

func Start(ctx context.Context, name string, tags ...opentracing.StartSpanOption) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, name, tags...)
}
