package royalty

import "github.com/shopspring/decimal"

// Breakdown is the exact, unrounded split of one sale.
type Breakdown struct {
	SaleAmount     decimal.Decimal
	PlatformFee    decimal.Decimal
	AuthorRoyalty  decimal.Decimal
	PublisherShare decimal.Decimal
	NetAmount      decimal.Decimal
}

// Calculate splits finalPrice × quantity between platform, author and publisher.
// It performs no validation; callers reject negative prices, non-positive quantities
// and invalid rates before calling it.
func Calculate(finalPrice decimal.Decimal, quantity int64, rates Rates) Breakdown {
	sale := finalPrice.Mul(decimal.NewFromInt(quantity))
	fee := sale.Mul(rates.PlatformFee)
	author := sale.Mul(rates.Author)
	publisher := sale.Mul(rates.Publisher)

	return Breakdown{
		SaleAmount:     sale,
		PlatformFee:    fee,
		AuthorRoyalty:  author,
		PublisherShare: publisher,
		NetAmount:      sale.Sub(fee).Sub(author).Sub(publisher),
	}
}

// Allocation is a Breakdown settled to whole minor currency units.
type Allocation struct {
	SaleAmount     int64
	PlatformFee    int64
	AuthorRoyalty  int64
	PublisherShare int64
	NetAmount      int64
}

// Settle rounds a Breakdown expressed in minor units to whole units.
//
// Each share is rounded half-up on its own and the net amount absorbs the residue,
// so PlatformFee + AuthorRoyalty + PublisherShare + NetAmount == SaleAmount.
// When the rounded shares overshoot the sale (rates summing to 1), the excess is
// taken back from the publisher share, then the author royalty, then the fee.
func (b Breakdown) Settle() Allocation {
	sale := b.SaleAmount.Round(0).IntPart()
	shares := [3]int64{
		b.PlatformFee.Round(0).IntPart(),
		b.AuthorRoyalty.Round(0).IntPart(),
		b.PublisherShare.Round(0).IntPart(),
	}

	excess := shares[0] + shares[1] + shares[2] - sale
	for i := len(shares) - 1; i >= 0 && excess > 0; i-- {
		take := min(shares[i], excess)
		shares[i] -= take
		excess -= take
	}

	return Allocation{
		SaleAmount:     sale,
		PlatformFee:    shares[0],
		AuthorRoyalty:  shares[1],
		PublisherShare: shares[2],
		NetAmount:      sale - shares[0] - shares[1] - shares[2],
	}
}

// Reconciles reports whether the settled parts sum to the sale amount.
func (a Allocation) Reconciles() bool {
	return a.PlatformFee+a.AuthorRoyalty+a.PublisherShare+a.NetAmount == a.SaleAmount
}
