package export

import (
	"encoding/csv"
	"io"

	"github.com/smallbiznis/folio/internal/report/domain"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
)

// WriteCSV writes a header row and one row per sale. Fields containing commas,
// quotes or newlines are quoted.
func WriteCSV(w io.Writer, kind domain.SelectorKind, sales []saledomain.Sale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(kind)); err != nil {
		return err
	}
	for _, sale := range sales {
		if err := cw.Write(Row(kind, sale)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
