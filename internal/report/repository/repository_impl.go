package repository

import (
	"context"

	"github.com/smallbiznis/folio/internal/report/domain"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListSales(ctx context.Context, db *gorm.DB, q domain.Query) ([]*saledomain.Sale, error) {
	var sales []*saledomain.Sale
	stmt := db.WithContext(ctx).Model(&saledomain.Sale{})

	switch q.Selector.Kind {
	case domain.SelectorAuthor:
		stmt = stmt.Where("author_id = ?", q.Selector.ID)
	case domain.SelectorPublisher:
		stmt = stmt.Where("publisher_id = ?", q.Selector.ID)
	}
	if q.Range.From != nil {
		stmt = stmt.Where("sold_at >= ?", q.Range.From.UTC())
	}
	if q.Range.To != nil {
		stmt = stmt.Where("sold_at <= ?", q.Range.To.UTC())
	}

	if err := stmt.Order("sold_at desc, id desc").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
