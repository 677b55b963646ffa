package config

import "go.uber.org/fx"

// Module регистрирует *Config как fx-провайдер. Ошибка загрузки конфига роняет старт.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
	)
}

// Static отдаёт уже загруженный конфиг (тесты, cmd/ordertest).
func Static(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
	)
}
