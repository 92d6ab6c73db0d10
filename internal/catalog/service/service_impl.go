package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/folio/internal/catalog/domain"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
	Repo  domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	currency string
	repo     domain.Repository
}

var hundred = decimal.NewFromInt(100)

func New(p Params) domain.Service {
	currency := strings.ToUpper(strings.TrimSpace(p.Cfg.Currency))
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("catalog.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		currency: currency,
		repo:     p.Repo,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.User{}, domain.ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.User{}, err
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = domain.RoleCustomer
	}
	if !role.Valid() {
		return domain.User{}, domain.ErrInvalidRole
	}

	existing, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ErrEmailTaken
	}

	now := s.clock.Now().UTC()
	user := domain.User{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertUser(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return *user, nil
}

// CreateAuthor links the author to the platform account sharing its email, if any.
// The link is fixed at creation so wallet credits never depend on a later email lookup.
func (s *Service) CreateAuthor(ctx context.Context, req domain.CreateAuthorRequest) (domain.Author, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Author{}, domain.ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Author{}, err
	}
	if err := validateRate(req.RoyaltyRate); err != nil {
		return domain.Author{}, err
	}

	now := s.clock.Now().UTC()
	author := domain.Author{
		ID:          s.genID.Generate(),
		Name:        name,
		Email:       email,
		RoyaltyRate: req.RoyaltyRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.repo.FindUserByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if user != nil {
			author.UserID = &user.ID
		}
		return s.repo.InsertAuthor(ctx, tx, &author)
	})
	if err != nil {
		return domain.Author{}, err
	}

	s.log.Info("author created",
		zap.String("author_id", author.ID.String()),
		zap.Bool("wallet_linked", author.UserID != nil),
	)
	return author, nil
}

func (s *Service) GetAuthor(ctx context.Context, id string) (domain.Author, error) {
	authorID, err := parseID(id)
	if err != nil {
		return domain.Author{}, err
	}
	author, err := s.repo.FindAuthorByID(ctx, s.db, authorID)
	if err != nil {
		return domain.Author{}, err
	}
	if author == nil {
		return domain.Author{}, fmt.Errorf("author %s: %w", authorID, domain.ErrNotFound)
	}
	return *author, nil
}

func (s *Service) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	items, err := s.repo.ListAuthors(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) CreatePublisher(ctx context.Context, req domain.CreatePublisherRequest) (domain.Publisher, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Publisher{}, domain.ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Publisher{}, err
	}
	if err := validateRate(req.RoyaltyRate); err != nil {
		return domain.Publisher{}, err
	}

	now := s.clock.Now().UTC()
	publisher := domain.Publisher{
		ID:          s.genID.Generate(),
		Name:        name,
		Email:       email,
		RoyaltyRate: req.RoyaltyRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertPublisher(ctx, s.db, &publisher); err != nil {
		return domain.Publisher{}, err
	}
	return publisher, nil
}

func (s *Service) GetPublisher(ctx context.Context, id string) (domain.Publisher, error) {
	publisherID, err := parseID(id)
	if err != nil {
		return domain.Publisher{}, err
	}
	publisher, err := s.repo.FindPublisherByID(ctx, s.db, publisherID)
	if err != nil {
		return domain.Publisher{}, err
	}
	if publisher == nil {
		return domain.Publisher{}, fmt.Errorf("publisher %s: %w", publisherID, domain.ErrNotFound)
	}
	return *publisher, nil
}

func (s *Service) ListPublishers(ctx context.Context) ([]domain.Publisher, error) {
	items, err := s.repo.ListPublishers(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) CreateBook(ctx context.Context, req domain.CreateBookRequest) (domain.Book, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Book{}, domain.ErrInvalidName
	}
	authorID, err := parseID(req.AuthorID)
	if err != nil {
		return domain.Book{}, err
	}
	publisherID, err := parseID(req.PublisherID)
	if err != nil {
		return domain.Book{}, err
	}
	if req.ListPrice < 0 {
		return domain.Book{}, domain.ErrInvalidPrice
	}
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(hundred) {
		return domain.Book{}, domain.ErrInvalidDiscount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	if len(currency) != 3 {
		return domain.Book{}, domain.ErrInvalidCurrency
	}

	now := s.clock.Now().UTC()
	book := domain.Book{
		ID:              s.genID.Generate(),
		Title:           title,
		AuthorID:        authorID,
		PublisherID:     publisherID,
		ListPrice:       req.ListPrice,
		DiscountPercent: req.DiscountPercent,
		FinalPrice:      FinalPrice(req.ListPrice, req.DiscountPercent),
		Currency:        currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err := s.repo.FindAuthorByID(ctx, tx, authorID)
		if err != nil {
			return err
		}
		if author == nil {
			return fmt.Errorf("author %s: %w", authorID, domain.ErrNotFound)
		}
		publisher, err := s.repo.FindPublisherByID(ctx, tx, publisherID)
		if err != nil {
			return err
		}
		if publisher == nil {
			return fmt.Errorf("publisher %s: %w", publisherID, domain.ErrNotFound)
		}
		return s.repo.InsertBook(ctx, tx, &book)
	})
	if err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (domain.Book, error) {
	bookID, err := parseID(id)
	if err != nil {
		return domain.Book{}, err
	}
	book, err := s.repo.FindBookByID(ctx, s.db, bookID)
	if err != nil {
		return domain.Book{}, err
	}
	if book == nil {
		return domain.Book{}, fmt.Errorf("book %s: %w", bookID, domain.ErrNotFound)
	}
	return *book, nil
}

func (s *Service) ListBooks(ctx context.Context, req domain.ListBooksRequest) ([]domain.Book, error) {
	var filter domain.BookFilter
	if strings.TrimSpace(req.AuthorID) != "" {
		id, err := parseID(req.AuthorID)
		if err != nil {
			return nil, err
		}
		filter.AuthorID = &id
	}
	if strings.TrimSpace(req.PublisherID) != "" {
		id, err := parseID(req.PublisherID)
		if err != nil {
			return nil, err
		}
		filter.PublisherID = &id
	}
	items, err := s.repo.ListBooks(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

// FinalPrice applies a percentage discount to a list price in minor units, rounding half-up.
func FinalPrice(listPrice int64, discountPercent decimal.Decimal) int64 {
	keep := hundred.Sub(discountPercent).Div(hundred)
	return decimal.NewFromInt(listPrice).Mul(keep).Round(0).IntPart()
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Address == "" {
		return "", domain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func validateRate(rate decimal.NullDecimal) error {
	if !rate.Valid {
		return nil
	}
	if rate.Decimal.IsNegative() || rate.Decimal.GreaterThan(decimal.NewFromInt(1)) {
		return domain.ErrInvalidRate
	}
	if !rate.Decimal.Equal(rate.Decimal.Truncate(domain.RateScale)) {
		return fmt.Errorf("more than %d decimal places: %w", domain.RateScale, domain.ErrInvalidRate)
	}
	return nil
}

func deref[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}
