package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
)

// RoyaltyFor picks the royalty figure a selector cares about.
func RoyaltyFor(kind SelectorKind, sale saledomain.Sale) int64 {
	switch kind {
	case SelectorAuthor:
		return sale.AuthorRoyalty
	case SelectorPublisher:
		return sale.PublisherShare
	default:
		return sale.PlatformFee
	}
}

// AggregateMonthly buckets sales by calendar month in UTC, newest month first.
func AggregateMonthly(sales []saledomain.Sale, kind SelectorKind) []MonthlyBucket {
	index := make(map[int]int)
	buckets := make([]MonthlyBucket, 0)

	for _, sale := range sales {
		soldAt := sale.SoldAt.UTC()
		key := soldAt.Year()*100 + int(soldAt.Month())
		i, ok := index[key]
		if !ok {
			buckets = append(buckets, MonthlyBucket{
				Period: soldAt.Format("Jan 2006"),
				Year:   soldAt.Year(),
				Month:  int(soldAt.Month()),
			})
			i = len(buckets) - 1
			index[key] = i
		}
		b := &buckets[i]
		b.SalesCount++
		b.Quantity += sale.Quantity
		b.SaleAmount += sale.SaleAmount
		b.Royalty += RoyaltyFor(kind, sale)
	}

	for i := range buckets {
		if buckets[i].Quantity > 0 {
			buckets[i].AverageRoyaltyPerUnit = decimal.NewFromInt(buckets[i].Royalty).
				DivRound(decimal.NewFromInt(buckets[i].Quantity), 2)
		}
	}

	slices.SortFunc(buckets, func(a, b MonthlyBucket) int {
		return bucketKey(b) - bucketKey(a)
	})
	return buckets
}

func bucketKey(b MonthlyBucket) int {
	return b.Year*100 + b.Month
}

func Summarize(sales []saledomain.Sale) Summary {
	var s Summary
	for _, sale := range sales {
		s.SalesCount++
		s.Quantity += sale.Quantity
		s.SaleAmount += sale.SaleAmount
		s.PlatformFee += sale.PlatformFee
		s.AuthorRoyalty += sale.AuthorRoyalty
		s.PublisherShare += sale.PublisherShare
		s.NetAmount += sale.NetAmount
	}
	return s
}

// BuildView assembles a dashboard view from already-loaded sales.
func BuildView(sales []saledomain.Sale, kind SelectorKind, source Source, now time.Time) View {
	if sales == nil {
		sales = []saledomain.Sale{}
	}
	return View{
		Sales:       sales,
		Monthly:     AggregateMonthly(sales, kind),
		Summary:     Summarize(sales),
		Degraded:    source != SourceLive,
		Source:      source,
		GeneratedAt: now.UTC(),
	}
}
