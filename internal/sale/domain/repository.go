package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertSale reports false when a sale for the same order and book already exists.
	InsertSale(ctx context.Context, db *gorm.DB, sale *Sale) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Sale, error)
	FindByOrderAndBook(ctx context.Context, db *gorm.DB, orderID string, bookID snowflake.ID) (*Sale, error)
	ListByOrder(ctx context.Context, db *gorm.DB, orderID string) ([]*Sale, error)

	// Increment* add delta to the running balance and stamp updated_at with at.
	IncrementAuthorEarnings(ctx context.Context, db *gorm.DB, authorID snowflake.ID, delta int64, at time.Time) error
	IncrementPublisherEarnings(ctx context.Context, db *gorm.DB, publisherID snowflake.ID, delta int64, at time.Time) error
	IncrementWalletBalance(ctx context.Context, db *gorm.DB, userID snowflake.ID, delta int64, at time.Time) error
}
