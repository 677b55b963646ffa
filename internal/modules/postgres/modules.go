package postgres

import (
	"context"
	"fmt"

	"signal_bot/internal/modules/config"
	"signal_bot/pkg/db"

	"go.uber.org/fx"
)

// Module отдаёт *db.PgTxManager (и его же как db.TxManager) поверх pgxpool.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(lc fx.Lifecycle, ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				poolConf := db.PoolConfig{
					DSN:              cfg.DB.DSN,
					LockTimeout:      cfg.DB.LockTimeout,
					StatementTimeout: cfg.DB.StatementTimeout,
				}
				poolMaster, err := db.NewPool(ctx, poolConf)
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					poolMaster.Close()
					return nil, fmt.Errorf("ping postgres: %w", err)
				}

				m := db.NewPgTxManager(poolMaster, poolConf)
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						m.Close()
						return nil
					},
				})
				return m, nil
			},
			func(m *db.PgTxManager) db.TxManager { return m },
		),
	)
}
