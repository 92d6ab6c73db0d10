package royalty

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateExampleSplit(t *testing.T) {
	b := Calculate(dec("300"), 2, Rates{PlatformFee: dec("0.10"), Author: dec("0.15"), Publisher: dec("0.20")})

	assert.True(t, b.SaleAmount.Equal(dec("600")), b.SaleAmount.String())
	assert.True(t, b.AuthorRoyalty.Equal(dec("90")), b.AuthorRoyalty.String())
	assert.True(t, b.PublisherShare.Equal(dec("120")), b.PublisherShare.String())
	assert.True(t, b.PlatformFee.Equal(dec("60")), b.PlatformFee.String())
	assert.True(t, b.NetAmount.Equal(dec("330")), b.NetAmount.String())
}

func TestCalculateZeroPrice(t *testing.T) {
	b := Calculate(decimal.Zero, 5, DefaultRates())

	for name, v := range map[string]decimal.Decimal{
		"sale":      b.SaleAmount,
		"fee":       b.PlatformFee,
		"author":    b.AuthorRoyalty,
		"publisher": b.PublisherShare,
		"net":       b.NetAmount,
	} {
		assert.True(t, v.IsZero(), "%s = %s", name, v)
	}
	assert.Equal(t, Allocation{}, b.Settle())
}

func TestCalculateSaleAmountIsExact(t *testing.T) {
	prices := []string{"0", "0.01", "19.99", "300", "1234.567"}
	for _, p := range prices {
		for q := int64(1); q <= 25; q++ {
			b := Calculate(dec(p), q, DefaultRates())
			assert.True(t, b.SaleAmount.Equal(dec(p).Mul(decimal.NewFromInt(q))), "price=%s qty=%d", p, q)
		}
	}
}

func TestBreakdownPartsSumToSaleAmount(t *testing.T) {
	rates := []Rates{
		DefaultRates(),
		{PlatformFee: dec("0.07"), Author: dec("0.333"), Publisher: dec("0.25")},
		{PlatformFee: dec("0.5"), Author: dec("0.5"), Publisher: dec("0")},
		{PlatformFee: dec("0"), Author: dec("0"), Publisher: dec("0")},
	}
	for _, r := range rates {
		for price := int64(0); price < 500; price += 7 {
			for q := int64(1); q <= 4; q++ {
				b := Calculate(decimal.NewFromInt(price), q, r)
				sum := b.PlatformFee.Add(b.AuthorRoyalty).Add(b.PublisherShare).Add(b.NetAmount)
				require.True(t, sum.Equal(b.SaleAmount), "exact sum mismatch price=%d qty=%d", price, q)

				a := b.Settle()
				require.True(t, a.Reconciles(), "settled sum mismatch price=%d qty=%d: %+v", price, q, a)
				require.GreaterOrEqual(t, a.PlatformFee, int64(0))
				require.GreaterOrEqual(t, a.AuthorRoyalty, int64(0))
				require.GreaterOrEqual(t, a.PublisherShare, int64(0))
				require.GreaterOrEqual(t, a.NetAmount, int64(0))
			}
		}
	}
}

func TestSettleRoundsEachShareHalfUp(t *testing.T) {
	// 5 minor units: exact fee 0.5, royalty 0.75, share 1.
	a := Calculate(decimal.NewFromInt(5), 1, DefaultRates()).Settle()

	assert.Equal(t, Allocation{SaleAmount: 5, PlatformFee: 1, AuthorRoyalty: 1, PublisherShare: 1, NetAmount: 2}, a)
}

func TestSettleRoundsSharesIndependently(t *testing.T) {
	rates := Rates{PlatformFee: dec("0.07"), Author: dec("0.333"), Publisher: dec("0.25")}
	for price := int64(1); price < 400; price++ {
		b := Calculate(decimal.NewFromInt(price), 1, rates)
		a := b.Settle()
		require.Equal(t, b.PlatformFee.Round(0).IntPart(), a.PlatformFee, "price=%d", price)
		require.Equal(t, b.AuthorRoyalty.Round(0).IntPart(), a.AuthorRoyalty, "price=%d", price)
		require.Equal(t, b.PublisherShare.Round(0).IntPart(), a.PublisherShare, "price=%d", price)
		require.True(t, a.Reconciles(), "price=%d: %+v", price, a)
	}
}

func TestSettleTrimsOverflowFromLastShare(t *testing.T) {
	// 1 minor unit split 50/50: both shares round up to 1.
	b := Calculate(decimal.NewFromInt(1), 1, Rates{PlatformFee: dec("0.5"), Author: dec("0.5"), Publisher: decimal.Zero})
	a := b.Settle()

	assert.Equal(t, Allocation{SaleAmount: 1, PlatformFee: 1, AuthorRoyalty: 0, PublisherShare: 0, NetAmount: 0}, a)
}

func TestSettleMinorUnits(t *testing.T) {
	// 250.00 at the default rates, expressed in cents.
	a := Calculate(decimal.NewFromInt(25000), 1, DefaultRates()).Settle()

	assert.Equal(t, Allocation{
		SaleAmount:     25000,
		PlatformFee:    2500,
		AuthorRoyalty:  3750,
		PublisherShare: 5000,
		NetAmount:      13750,
	}, a)
}

func TestRatesValidate(t *testing.T) {
	assert.NoError(t, DefaultRates().Validate())
	assert.ErrorIs(t, Rates{PlatformFee: dec("0.1"), Author: dec("0.6"), Publisher: dec("0.6")}.Validate(), ErrRatesExceedSale)
	assert.ErrorIs(t, Rates{Author: dec("-0.01")}.Validate(), ErrInvalidRate)
	assert.ErrorIs(t, Rates{Publisher: dec("1.01")}.Validate(), ErrInvalidRate)
	assert.NoError(t, Rates{PlatformFee: dec("0.2"), Author: dec("0.3"), Publisher: dec("0.5")}.Validate())
}

func TestRatesWithOverrides(t *testing.T) {
	r := DefaultRates().WithOverrides(
		decimal.NullDecimal{Decimal: dec("0.25"), Valid: true},
		decimal.NullDecimal{},
	)
	assert.True(t, r.Author.Equal(dec("0.25")))
	assert.True(t, r.Publisher.Equal(dec("0.20")))
	assert.True(t, r.PlatformFee.Equal(dec("0.10")))
}

func TestMoneyFormatting(t *testing.T) {
	assert.Equal(t, "600", FormatMinor(60000))
	assert.Equal(t, "37.5", FormatMinor(3750))
	assert.Equal(t, "0", FormatMinor(0))
	assert.Equal(t, int64(1999), MajorToMinor(dec("19.99")))
	assert.Equal(t, int64(1000), MajorToMinor(dec("9.995")))
}
