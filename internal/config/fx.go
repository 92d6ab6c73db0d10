package config

import "go.uber.org/fx"

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(provideRoyaltyConfigHolder),
)

func provideRoyaltyConfigHolder(cfg Config) (*RoyaltyConfigHolder, error) {
	return NewRoyaltyConfigHolder(cfg.RoyaltyConfigPath)
}
