package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"signal_bot/internal/modules/coinex_client"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/postgres"
	"signal_bot/internal/modules/signal_store"
	telegram "signal_bot/internal/modules/telegram_bot"
	"signal_bot/internal/modules/tracing"
	"signal_bot/internal/runner"
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
		fx.Supply(logger.Params{Level: cfg.Service.LogLevel, Service: cfg.Service.Name + "-trader"}),
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
		coinex_client.Module(),
		runner.Module(),
	)
	app.Run()
}
