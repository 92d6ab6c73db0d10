package export

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/folio/internal/report/domain"
	"github.com/smallbiznis/folio/internal/royalty"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
)

const dateLayout = "2006-01-02"

var (
	globalHeader    = []string{"Sale ID", "Book ID", "Order ID", "Quantity", "Sale Amount", "Platform Fee", "Author Royalty", "Publisher Share", "Date"}
	authorHeader    = []string{"Sale ID", "Book Title", "Publisher", "Quantity", "Sale Amount", "Platform Fee", "Author Royalty", "Publisher Share", "Date"}
	publisherHeader = []string{"Sale ID", "Book Title", "Author", "Quantity", "Sale Amount", "Platform Fee", "Author Royalty", "Publisher Share", "Date"}
)

// Header returns the column titles for a selector kind.
func Header(kind domain.SelectorKind) []string {
	switch kind {
	case domain.SelectorAuthor:
		return authorHeader
	case domain.SelectorPublisher:
		return publisherHeader
	default:
		return globalHeader
	}
}

// Row renders one sale; amounts are major units without trailing zeros.
func Row(kind domain.SelectorKind, sale saledomain.Sale) []string {
	var second, third string
	switch kind {
	case domain.SelectorAuthor:
		second, third = sale.BookTitle, sale.PublisherName
	case domain.SelectorPublisher:
		second, third = sale.BookTitle, sale.AuthorName
	default:
		second, third = sale.BookID.String(), sale.OrderID
	}
	return []string{
		sale.ID.String(),
		second,
		third,
		fmt.Sprint(sale.Quantity),
		royalty.FormatMinor(sale.SaleAmount),
		royalty.FormatMinor(sale.PlatformFee),
		royalty.FormatMinor(sale.AuthorRoyalty),
		royalty.FormatMinor(sale.PublisherShare),
		sale.SoldAt.UTC().Format(dateLayout),
	}
}

// FileName builds a download name such as "author-12345-sales-2024-01-31.csv".
func FileName(q domain.Query, report string, ext string, now time.Time) string {
	base := string(q.Selector.Kind)
	if q.Selector.ID != 0 {
		base += " " + q.Selector.ID.String()
	}
	return slug.Make(fmt.Sprintf("%s %s %s", base, report, now.UTC().Format(dateLayout))) + "." + ext
}
