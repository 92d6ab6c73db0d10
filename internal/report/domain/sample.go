package domain

import (
	"time"

	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
)

// SampleSales is the placeholder data shown when neither the database nor the
// cache can serve a dashboard. It is fixed so the fallback renders identically every time.
func SampleSales() []saledomain.Sale {
	return []saledomain.Sale{
		{
			ID:             2,
			OrderID:        "sample-order-2",
			BookID:         1002,
			BookTitle:      "Sample Title B",
			AuthorName:     "Sample Author",
			PublisherName:  "Sample Press",
			Quantity:       1,
			UnitPrice:      25000,
			SaleAmount:     25000,
			PlatformFee:    2500,
			AuthorRoyalty:  3750,
			PublisherShare: 5000,
			NetAmount:      13750,
			Currency:       "USD",
			SoldAt:         time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:             1,
			OrderID:        "sample-order-1",
			BookID:         1001,
			BookTitle:      "Sample Title A",
			AuthorName:     "Sample Author",
			PublisherName:  "Sample Press",
			Quantity:       2,
			UnitPrice:      30000,
			SaleAmount:     60000,
			PlatformFee:    6000,
			AuthorRoyalty:  9000,
			PublisherShare: 12000,
			NetAmount:      33000,
			Currency:       "USD",
			SoldAt:         time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		},
	}
}
