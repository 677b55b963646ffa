package tracing

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/modules/config"
	"signal_bot/pkg/tracing"
)

func NewTracer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (opentracing.Tracer, error) {
	tracer, closer, err := tracing.InitTracer(cfg.Service.Name, tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Tracing.Enabled {
		log.Info("jaeger tracer initialized",
			zap.String("host", cfg.Tracing.Host), zap.Int("port", cfg.Tracing.Port))
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})
	return tracer, nil
}

func Module() fx.Option {
	return fx.Module("tracing",
		fx.Provide(NewTracer),
		// трейсер глобальный, компоненты берут спаны из контекста
		fx.Invoke(func(opentracing.Tracer) {}),
	)
}
