package export

import (
	"io"
	"strconv"

	"github.com/smallbiznis/folio/internal/report/domain"
	"github.com/smallbiznis/folio/internal/royalty"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sales"

// WriteXLSX writes the same columns as WriteCSV into a workbook. Amounts are
// numeric cells so spreadsheets can sum them.
func WriteXLSX(w io.Writer, kind domain.SelectorKind, sales []saledomain.Sale) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := Header(kind)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return err
	}

	for i, sale := range sales {
		text := Row(kind, sale)
		row := []any{
			text[0],
			text[1],
			text[2],
			sale.Quantity,
			royalty.MinorToMajor(sale.SaleAmount).InexactFloat64(),
			royalty.MinorToMajor(sale.PlatformFee).InexactFloat64(),
			royalty.MinorToMajor(sale.AuthorRoyalty).InexactFloat64(),
			royalty.MinorToMajor(sale.PublisherShare).InexactFloat64(),
			text[8],
		}
		if err := f.SetSheetRow(sheetName, "A"+strconv.Itoa(i+2), &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
