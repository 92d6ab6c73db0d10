package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidOrder    = errors.New("invalid_order")
	ErrEmptyOrder      = errors.New("empty_order")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrEntityNotFound  = errors.New("entity_not_found")
	ErrPersistence     = errors.New("persistence_failure")
)

type RecordSaleRequest struct {
	OrderID  string `json:"order_id"`
	BookID   string `json:"book_id"`
	Quantity int64  `json:"quantity"`
}

type OrderLine struct {
	BookID   string `json:"book_id"`
	Quantity int64  `json:"quantity"`
}

type RecordOrderRequest struct {
	OrderID string      `json:"order_id"`
	Lines   []OrderLine `json:"lines"`
}

type Service interface {
	// RecordSale records one line item and returns the sale id. Recording the same
	// order and book twice returns the first sale id without changing any balance.
	RecordSale(ctx context.Context, req RecordSaleRequest) (snowflake.ID, error)
	// RecordOrder records every line of an order in a single transaction.
	RecordOrder(ctx context.Context, req RecordOrderRequest) ([]snowflake.ID, error)
	Get(ctx context.Context, id string) (Sale, error)
	ListByOrder(ctx context.Context, orderID string) ([]Sale, error)
}
