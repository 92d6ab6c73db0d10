package domain

import (
	"context"
	"io"

	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
)

type Service interface {
	ListSales(ctx context.Context, q Query) ([]saledomain.Sale, error)
	Monthly(ctx context.Context, q Query) ([]MonthlyBucket, error)
	// Dashboard only fails on an invalid query; read failures produce a degraded view.
	Dashboard(ctx context.Context, q Query) (View, error)

	ExportCSV(ctx context.Context, q Query, w io.Writer) error
	ExportXLSX(ctx context.Context, q Query, w io.Writer) error
	StatementPDF(ctx context.Context, q Query) ([]byte, error)
	ExportFileName(q Query, ext string) string
}
