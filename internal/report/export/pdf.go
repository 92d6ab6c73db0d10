package export

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/folio/internal/report/domain"
	"github.com/smallbiznis/folio/internal/royalty"
)

type Statement struct {
	Title       string
	Recipient   string
	Kind        domain.SelectorKind
	Currency    string
	Range       domain.DateRange
	Summary     domain.Summary
	Monthly     []domain.MonthlyBucket
	GeneratedAt time.Time
}

func royaltyLabel(kind domain.SelectorKind) string {
	switch kind {
	case domain.SelectorAuthor:
		return "Author royalty"
	case domain.SelectorPublisher:
		return "Publisher share"
	default:
		return "Platform fee"
	}
}

func rangeLabel(r domain.DateRange) string {
	from, to := "beginning", "today"
	if r.From != nil {
		from = r.From.UTC().Format(dateLayout)
	}
	if r.To != nil {
		to = r.To.UTC().Format(dateLayout)
	}
	return from + " to " + to
}

// StatementPDF renders a royalty statement with one row per month.
func StatementPDF(st Statement) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, st.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, st.GeneratedAt.UTC().Format(dateLayout), props.Text{
			Size:  9,
			Align: align.Right,
		}),
	)

	m.AddRow(16,
		col.New(8).Add(
			text.New(st.Recipient, props.Text{Style: fontstyle.Bold}),
			text.New("Period: "+rangeLabel(st.Range), props.Text{Top: 5, Size: 9}),
		),
		col.New(4).Add(
			text.New("Currency: "+st.Currency, props.Text{Size: 9, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(4, "Month", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Sales", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, royaltyLabel(st.Kind), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Per unit", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, b := range st.Monthly {
		m.AddRow(8,
			text.NewCol(4, b.Period, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprint(b.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, royalty.FormatMinor(b.SaleAmount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, royalty.FormatMinor(b.Royalty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, royalty.MinorToMajor(b.AverageRoyaltyPerUnit.Round(0).IntPart()).String(), props.Text{Size: 9, Align: align.Right}),
		)
	}

	total := st.Summary.PlatformFee
	switch st.Kind {
	case domain.SelectorAuthor:
		total = st.Summary.AuthorRoyalty
	case domain.SelectorPublisher:
		total = st.Summary.PublisherShare
	}
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Total "+royaltyLabel(st.Kind), props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, royalty.FormatMinor(total), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
