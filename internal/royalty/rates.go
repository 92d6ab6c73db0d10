package royalty

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRate     = errors.New("invalid_rate")
	ErrRatesExceedSale = errors.New("rates_exceed_sale")
)

var (
	defaultPlatformFeeRate = decimal.RequireFromString("0.10")
	defaultAuthorRate      = decimal.RequireFromString("0.15")
	defaultPublisherRate   = decimal.RequireFromString("0.20")
)

// Rates are the fractional shares of a sale amount taken by each party.
type Rates struct {
	PlatformFee decimal.Decimal
	Author      decimal.Decimal
	Publisher   decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		PlatformFee: defaultPlatformFeeRate,
		Author:      defaultAuthorRate,
		Publisher:   defaultPublisherRate,
	}
}

// Validate rejects rates outside [0,1] and rate sets that would leave a negative net amount.
func (r Rates) Validate() error {
	one := decimal.NewFromInt(1)
	for _, rate := range []decimal.Decimal{r.PlatformFee, r.Author, r.Publisher} {
		if rate.IsNegative() || rate.GreaterThan(one) {
			return ErrInvalidRate
		}
	}
	if r.PlatformFee.Add(r.Author).Add(r.Publisher).GreaterThan(one) {
		return ErrRatesExceedSale
	}
	return nil
}

// WithOverrides replaces the author and publisher rates with entity-specific ones when set.
func (r Rates) WithOverrides(author, publisher decimal.NullDecimal) Rates {
	if author.Valid {
		r.Author = author.Decimal
	}
	if publisher.Valid {
		r.Publisher = publisher.Decimal
	}
	return r
}

// ValidateRate checks a single configured rate.
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidRate
	}
	return nil
}
