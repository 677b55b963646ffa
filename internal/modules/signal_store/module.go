package signal_store

import (
	"context"

	"signal_bot/internal/modules/signal_store/service"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module поднимает очередь сигналов. Схема создаётся на старте, ошибка здесь фатальна.
func Module() fx.Option {
	return fx.Module("signal_store",
		fx.Provide(
			service.New, // func(db.TxManager) *service.Store
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Store, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if err := s.Setup(ctx); err != nil {
						log.Error("signal store schema setup failed", zap.Error(err))
						return err
					}
					log.Info("signal store is ready")
					return nil
				},
			})
		}),
	)
}
