package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params уровень и имя сервиса, их поставляет main из конфига.
type Params struct {
	Level   string
	Service string
}

// Module поднимает *zap.Logger и синкает его на остановке.
func Module() fx.Option {
	return fx.Module("logger",
		fx.Provide(func(lc fx.Lifecycle, p Params) (*zap.Logger, error) {
			l, err := New(p.Level, p.Service)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					_ = l.Sync()
					return nil
				},
			})
			return l, nil
		}),
	)
}
