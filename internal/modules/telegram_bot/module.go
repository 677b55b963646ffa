package telegram

import (
	"context"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/notify"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module отдаёт notify.Notifier: Telegram, если заданы токен и чат, иначе лог.
func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) notify.Notifier {
				if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
					log.Warn("telegram is not configured, notifications go to the log")
					return notify.NewStdout(log)
				}
				tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.QueueSize, log)
				if err != nil {
					// уведомления best-effort, из-за телеграма не падаем
					log.Error("telegram init failed, notifications go to the log", zap.Error(err))
					return notify.NewStdout(log)
				}
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						tg.Start()
						return nil
					},
					OnStop: func(ctx context.Context) error {
						return tg.Stop(ctx)
					},
				})
				return tg
			},
		),
	)
}
