package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/folio/internal/catalog/domain"
	"github.com/smallbiznis/folio/internal/catalog/repository"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCatalog(t *testing.T) domain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}, &domain.Author{}, &domain.Publisher{}, &domain.Book{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Cfg:   config.Config{Currency: "usd"},
		Repo:  repository.Provide(),
	})
}

func TestCreateAuthorLinksUserByEmail(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{Name: "Ada", Email: "Ada@Example.com", Role: "author"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	author, err := svc.CreateAuthor(ctx, domain.CreateAuthorRequest{Name: "Ada Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	require.NotNil(t, author.UserID)
	assert.Equal(t, user.ID, *author.UserID)

	loaded, err := svc.GetAuthor(ctx, author.ID.String())
	require.NoError(t, err)
	require.NotNil(t, loaded.UserID)
	assert.Equal(t, user.ID, *loaded.UserID)
	assert.False(t, loaded.RoyaltyRate.Valid)
}

func TestCreateAuthorWithoutMatchingUser(t *testing.T) {
	svc := setupCatalog(t)

	author, err := svc.CreateAuthor(context.Background(), domain.CreateAuthorRequest{
		Name:        "Grace",
		Email:       "grace@example.com",
		RoyaltyRate: decimal.NewNullDecimal(decimal.RequireFromString("0.25")),
	})
	require.NoError(t, err)
	assert.Nil(t, author.UserID)
	assert.True(t, author.RoyaltyRate.Decimal.Equal(decimal.RequireFromString("0.25")))
}

func TestCreateAuthorValidation(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	_, err := svc.CreateAuthor(ctx, domain.CreateAuthorRequest{Name: " ", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.CreateAuthor(ctx, domain.CreateAuthorRequest{Name: "X", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.CreateAuthor(ctx, domain.CreateAuthorRequest{
		Name:        "X",
		Email:       "x@example.com",
		RoyaltyRate: decimal.NewNullDecimal(decimal.RequireFromString("1.5")),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)
}

func TestCreateRejectsRatesBeyondStoredPrecision(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	_, err := svc.CreateAuthor(ctx, domain.CreateAuthorRequest{
		Name:        "Precise",
		Email:       "precise@example.com",
		RoyaltyRate: decimal.NewNullDecimal(decimal.RequireFromString("0.12345")),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)

	_, err = svc.CreatePublisher(ctx, domain.CreatePublisherRequest{
		Name:        "Precise Press",
		Email:       "press@example.com",
		RoyaltyRate: decimal.NewNullDecimal(decimal.RequireFromString("0.00001")),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)

	author, err := svc.CreateAuthor(ctx, domain.CreateAuthorRequest{
		Name:        "Exact",
		Email:       "exact@example.com",
		RoyaltyRate: decimal.NewNullDecimal(decimal.RequireFromString("0.12500")),
	})
	require.NoError(t, err)
	assert.True(t, author.RoyaltyRate.Decimal.Equal(decimal.RequireFromString("0.125")))
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Name: "B", Email: "A@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Name: "C", Email: "c@example.com", Role: "wizard"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestCreateBookComputesFinalPrice(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, domain.CreateAuthorRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	publisher, err := svc.CreatePublisher(ctx, domain.CreatePublisherRequest{Name: "P", Email: "p@example.com"})
	require.NoError(t, err)

	book, err := svc.CreateBook(ctx, domain.CreateBookRequest{
		Title:           "Notes",
		AuthorID:        author.ID.String(),
		PublisherID:     publisher.ID.String(),
		ListPrice:       40000,
		DiscountPercent: decimal.RequireFromString("25"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), book.FinalPrice)
	assert.Equal(t, "USD", book.Currency)

	books, err := svc.ListBooks(ctx, domain.ListBooksRequest{AuthorID: author.ID.String()})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book.ID, books[0].ID)
}

func TestCreateBookRequiresExistingParties(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	publisher, err := svc.CreatePublisher(ctx, domain.CreatePublisherRequest{Name: "P", Email: "p@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateBook(ctx, domain.CreateBookRequest{
		Title:       "Orphan",
		AuthorID:    "12345",
		PublisherID: publisher.ID.String(),
		ListPrice:   1000,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CreateBook(ctx, domain.CreateBookRequest{Title: "Bad", AuthorID: "x", PublisherID: publisher.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGetMissingEntities(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	_, err := svc.GetPublisher(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetBook(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetUser(ctx, "0")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestFinalPrice(t *testing.T) {
	assert.Equal(t, int64(1999), FinalPrice(1999, decimal.Zero))
	assert.Equal(t, int64(0), FinalPrice(1999, decimal.NewFromInt(100)))
	assert.Equal(t, int64(1333), FinalPrice(1999, decimal.RequireFromString("33.33")))
}
