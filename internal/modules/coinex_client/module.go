package coinex_client

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/modules/coinex_client/service"
	"signal_bot/internal/modules/config"
)

func NewClient(cfg *config.Config, log *zap.Logger) *service.Client {
	if cfg.CoinEx.AccessID == "" || cfg.CoinEx.SecretKey == "" {
		log.Warn("coinex credentials are empty, every order will fail")
	}
	return service.NewClient(service.Options{
		BaseURL:    cfg.CoinEx.BaseURL,
		AccessID:   cfg.CoinEx.AccessID,
		SecretKey:  cfg.CoinEx.SecretKey,
		MarketType: cfg.CoinEx.MarketType,
		Timeout:    cfg.CoinEx.Timeout,
		Leverage:   cfg.Trader.Leverage,
		MarginMode: cfg.Trader.MarginMode,
	})
}

func Module() fx.Option {
	return fx.Module("coinex_client",
		fx.Provide(NewClient),
	)
}
