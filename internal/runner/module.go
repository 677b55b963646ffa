package runner

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/daemon"
	coinex "signal_bot/internal/modules/coinex_client/service"
	"signal_bot/internal/modules/config"
	hs "signal_bot/internal/modules/health/service"
	store "signal_bot/internal/modules/signal_store/service"
	"signal_bot/internal/notify"
)

func NewSettings(cfg *config.Config) Settings {
	return Settings{
		Margin:         cfg.Trader.MarginUSDT,
		Leverage:       cfg.Trader.Leverage,
		MarginMode:     cfg.Trader.MarginMode,
		StaleThreshold: cfg.Trader.StaleThreshold,
		SettleDelay:    cfg.Trader.SettleDelay,
	}
}

func NewReconciler(
	st *store.Store,
	gw *coinex.Client,
	n notify.Notifier,
	book *PositionBook,
	set Settings,
	log *zap.Logger,
	m *hs.Metrics,
) *Reconciler {
	return New(st, gw, n, book, set, log.Named("trader"), m)
}

// Module демон-трейдер: разбор очереди раз в trader.poll_interval.
func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewSettings,
			NewPositionBook,
			NewReconciler,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			r *Reconciler,
			book *PositionBook,
			set Settings,
			n notify.Notifier,
			state *hs.State,
			m *hs.Metrics,
			log *zap.Logger,
		) {
			log.Info("trader settings",
				zap.Float64("margin_usdt", set.Margin),
				zap.Int("leverage", set.Leverage),
				zap.Float64("notional_usdt", cfg.Notional()),
				zap.String("margin_mode", string(set.MarginMode)),
				zap.Duration("stale_threshold", set.StaleThreshold),
			)
			log.Warn("position book starts empty, positions opened before this start are not tracked")
			// хук добавлен раньше цикла, поэтому на остановке выполняется после него
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					logOpenPositions(log, book)
					return nil
				},
			})
			daemon.Run(lc, daemon.Params{
				Name:       "trader",
				Interval:   cfg.Trader.PollInterval,
				BackoffMax: cfg.Policy.BackoffMax,
				Step: func(ctx context.Context) error {
					_, err := r.Cycle(ctx)
					return err
				},
				Notifier:     n,
				State:        state,
				Metrics:      m,
				Log:          log,
				StartMessage: startMessage(set),
				StopMessage:  stopMessage,
			})
		}),
	)
}

// logOpenPositions на остановке: что осталось открытым на бирже, книга в памяти пропадёт.
func logOpenPositions(log *zap.Logger, book *PositionBook) {
	snap := book.Snapshot()
	if len(snap) == 0 {
		log.Info("no open positions at shutdown")
		return
	}
	for _, p := range snap {
		log.Warn("position left open at shutdown",
			zap.String("symbol", p.Symbol),
			zap.String("side", string(p.Side)),
			zap.Float64("amount", p.Amount),
			zap.String("order_ref", p.OrderRef),
			zap.Time("opened_at", p.OpenedAt),
		)
	}
}
