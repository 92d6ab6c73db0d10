package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/folio/internal/catalog/domain"
	"github.com/smallbiznis/folio/internal/sale/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertSale(ctx context.Context, db *gorm.DB, sale *domain.Sale) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "book_id"}},
			DoNothing: true,
		}).
		Create(sale)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Sale, error) {
	var sale domain.Sale
	res := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&sale)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &sale, nil
}

func (r *repo) FindByOrderAndBook(ctx context.Context, db *gorm.DB, orderID string, bookID snowflake.ID) (*domain.Sale, error) {
	var sale domain.Sale
	res := db.WithContext(ctx).
		Where("order_id = ? AND book_id = ?", orderID, bookID).
		Limit(1).
		Find(&sale)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &sale, nil
}

func (r *repo) ListByOrder(ctx context.Context, db *gorm.DB, orderID string) ([]*domain.Sale, error) {
	var sales []*domain.Sale
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sold_at asc, id asc").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) IncrementAuthorEarnings(ctx context.Context, db *gorm.DB, authorID snowflake.ID, delta int64, at time.Time) error {
	return increment(ctx, db, &catalogdomain.Author{}, authorID, "total_earnings", delta, at)
}

func (r *repo) IncrementPublisherEarnings(ctx context.Context, db *gorm.DB, publisherID snowflake.ID, delta int64, at time.Time) error {
	return increment(ctx, db, &catalogdomain.Publisher{}, publisherID, "total_earnings", delta, at)
}

func (r *repo) IncrementWalletBalance(ctx context.Context, db *gorm.DB, userID snowflake.ID, delta int64, at time.Time) error {
	return increment(ctx, db, &catalogdomain.User{}, userID, "wallet_balance", delta, at)
}

// increment applies "column = column + delta" so concurrent sales commute without row locks.
func increment(ctx context.Context, db *gorm.DB, model any, id snowflake.ID, column string, delta int64, at time.Time) error {
	if delta == 0 {
		return nil
	}
	res := db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			column:       gorm.Expr(column+" + ?", delta),
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("increment %s on %d: %w", column, id, domain.ErrEntityNotFound)
	}
	return nil
}
