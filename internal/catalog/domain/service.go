package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidRole     = errors.New("invalid_role")
	ErrInvalidRate     = errors.New("invalid_royalty_rate")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidDiscount = errors.New("invalid_discount")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrEmailTaken      = errors.New("email_taken")
	ErrNotFound        = errors.New("not_found")
)

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type CreateAuthorRequest struct {
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	RoyaltyRate decimal.NullDecimal `json:"royalty_rate"`
}

type CreatePublisherRequest struct {
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	RoyaltyRate decimal.NullDecimal `json:"royalty_rate"`
}

type CreateBookRequest struct {
	Title           string          `json:"title"`
	AuthorID        string          `json:"author_id"`
	PublisherID     string          `json:"publisher_id"`
	ListPrice       int64           `json:"list_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Currency        string          `json:"currency"`
}

type ListBooksRequest struct {
	AuthorID    string
	PublisherID string
}

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (User, error)
	GetUser(ctx context.Context, id string) (User, error)

	CreateAuthor(ctx context.Context, req CreateAuthorRequest) (Author, error)
	GetAuthor(ctx context.Context, id string) (Author, error)
	ListAuthors(ctx context.Context) ([]Author, error)

	CreatePublisher(ctx context.Context, req CreatePublisherRequest) (Publisher, error)
	GetPublisher(ctx context.Context, id string) (Publisher, error)
	ListPublishers(ctx context.Context) ([]Publisher, error)

	CreateBook(ctx context.Context, req CreateBookRequest) (Book, error)
	GetBook(ctx context.Context, id string) (Book, error)
	ListBooks(ctx context.Context, req ListBooksRequest) ([]Book, error)
}
