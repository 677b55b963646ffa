package signal_source

import (
	"errors"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/signal_source/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("signal_source",
		fx.Provide(
			func(cfg *config.Config) (*service.Client, error) {
				if cfg.Source.URL == "" {
					return nil, errors.New("source.url is required for the ingester")
				}
				return service.NewClient(cfg.Source.URL, cfg.Source.Timeout), nil
			},
		),
	)
}
