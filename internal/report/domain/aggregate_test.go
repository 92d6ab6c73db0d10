package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMonthlyGroupsByCalendarMonth(t *testing.T) {
	sales := []saledomain.Sale{
		{Quantity: 1, SaleAmount: 25000, AuthorRoyalty: 3750, SoldAt: time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)},
		{Quantity: 2, SaleAmount: 60000, AuthorRoyalty: 9000, SoldAt: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
	}

	buckets := AggregateMonthly(sales, SelectorAuthor)
	require.Len(t, buckets, 1)
	b := buckets[0]
	assert.Equal(t, "Jan 2024", b.Period)
	assert.Equal(t, int64(3), b.Quantity)
	assert.Equal(t, int64(85000), b.SaleAmount)
	assert.Equal(t, int64(12750), b.Royalty)
	assert.Equal(t, int64(2), b.SalesCount)
	assert.True(t, b.AverageRoyaltyPerUnit.Equal(decimal.NewFromInt(4250)), b.AverageRoyaltyPerUnit.String())
}

func TestAggregateMonthlyOrdersNewestFirst(t *testing.T) {
	sales := []saledomain.Sale{
		{Quantity: 1, PlatformFee: 10, SoldAt: time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)},
		{Quantity: 1, PlatformFee: 20, SoldAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Quantity: 1, PlatformFee: 30, SoldAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	buckets := AggregateMonthly(sales, SelectorGlobal)
	require.Len(t, buckets, 3)
	assert.Equal(t, "Mar 2024", buckets[0].Period)
	assert.Equal(t, "Jan 2024", buckets[1].Period)
	assert.Equal(t, "Dec 2023", buckets[2].Period)
	assert.Equal(t, int64(20), buckets[0].Royalty)
}

func TestAggregateMonthlyUsesUTC(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	sales := []saledomain.Sale{
		// 2024-02-01 03:00 local is still January in UTC.
		{Quantity: 1, PublisherShare: 5, SoldAt: time.Date(2024, 2, 1, 3, 0, 0, 0, jakarta)},
	}

	buckets := AggregateMonthly(sales, SelectorPublisher)
	require.Len(t, buckets, 1)
	assert.Equal(t, "Jan 2024", buckets[0].Period)
	assert.Equal(t, int64(5), buckets[0].Royalty)
}

func TestSummarize(t *testing.T) {
	s := Summarize(SampleSales())
	assert.Equal(t, int64(2), s.SalesCount)
	assert.Equal(t, int64(85000), s.SaleAmount)
	assert.Equal(t, s.SaleAmount, s.PlatformFee+s.AuthorRoyalty+s.PublisherShare+s.NetAmount)
}

func TestQueryValidate(t *testing.T) {
	assert.NoError(t, Query{Selector: Selector{Kind: SelectorGlobal}}.Validate())
	assert.ErrorIs(t, Query{Selector: Selector{Kind: SelectorAuthor}}.Validate(), ErrInvalidSelector)
	assert.ErrorIs(t, Query{Selector: Selector{Kind: "region"}}.Validate(), ErrInvalidSelector)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, Query{Selector: Selector{Kind: SelectorGlobal}, Range: DateRange{From: &from, To: &to}}.Validate(), ErrInvalidRange)
}
