package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/ingester"
	"signal_bot/internal/modules/postgres"
	"signal_bot/internal/modules/signal_source"
	"signal_bot/internal/modules/signal_store"
	telegram "signal_bot/internal/modules/telegram_bot"
	"signal_bot/internal/modules/tracing"
	"signal_bot/pkg/logger"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		fx.Supply(logger.Params{Level: cfg.Service.LogLevel, Service: cfg.Service.Name + "-ingester"}),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		config.Static(cfg),
		logger.Module(),
		tracing.Module(),
		health.Module(),
		postgres.Module(),
		signal_store.Module(),
		telegram.Module(),
		signal_source.Module(),
		ingester.Module(),
	)
	app.Run()
}
