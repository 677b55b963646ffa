package ingester

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/daemon"
	"signal_bot/internal/modules/config"
	hs "signal_bot/internal/modules/health/service"
	"signal_bot/internal/modules/ingester/service"
	source "signal_bot/internal/modules/signal_source/service"
	store "signal_bot/internal/modules/signal_store/service"
	"signal_bot/internal/notify"
)

func NewIngester(src *source.Client, st *store.Store, n notify.Notifier, log *zap.Logger, m *hs.Metrics) *service.Ingester {
	return service.New(src, st, n, log.Named("ingester"), m)
}

// Module демон-слушатель: опрос источника раз в source.poll_interval.
func Module() fx.Option {
	return fx.Module("ingester",
		fx.Provide(NewIngester),
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			ing *service.Ingester,
			n notify.Notifier,
			state *hs.State,
			m *hs.Metrics,
			log *zap.Logger,
		) {
			daemon.Run(lc, daemon.Params{
				Name:       "ingester",
				Interval:   cfg.Source.PollInterval,
				BackoffMax: cfg.Policy.BackoffMax,
				Step: func(ctx context.Context) error {
					_, err := ing.Poll(ctx)
					return err
				},
				Notifier:     n,
				State:        state,
				Metrics:      m,
				Log:          log,
				StartMessage: "<b>🚀 Listener Bot Started</b>",
				StopMessage:  "<b>🛑 Listener Bot Stopped</b>",
			})
		}),
	)
}
