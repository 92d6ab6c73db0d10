package royalty

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/folio/internal/config"
	"go.uber.org/fx"
)

// RatesProvider supplies the rates in force at the moment of a sale.
type RatesProvider interface {
	Rates() Rates
}

// StaticRates always returns the same rates.
type StaticRates Rates

func (s StaticRates) Rates() Rates { return Rates(s) }

type configRates struct {
	holder *config.RoyaltyConfigHolder
}

// NewConfigRates reads rates from the hot-reloaded royalty configuration.
func NewConfigRates(holder *config.RoyaltyConfigHolder) RatesProvider {
	return &configRates{holder: holder}
}

func (c *configRates) Rates() Rates {
	if c.holder == nil {
		return DefaultRates()
	}
	cfg := c.holder.Get()
	return Rates{
		PlatformFee: decimal.NewFromFloat(cfg.PlatformFeeRate),
		Author:      decimal.NewFromFloat(cfg.AuthorRate),
		Publisher:   decimal.NewFromFloat(cfg.PublisherRate),
	}
}

var Module = fx.Module("royalty",
	fx.Provide(NewConfigRates),
)
