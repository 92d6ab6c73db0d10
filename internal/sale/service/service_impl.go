package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/folio/internal/catalog/domain"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/observability/metrics"
	"github.com/smallbiznis/folio/internal/royalty"
	"github.com/smallbiznis/folio/internal/sale/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes used to label failed sales.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Rates       royalty.RatesProvider
	Repo        domain.Repository
	CatalogRepo catalogdomain.Repository
	AuditSvc    auditdomain.Service `optional:"true"`
	Metrics     *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	rates       royalty.RatesProvider
	repo        domain.Repository
	catalogRepo catalogdomain.Repository
	auditSvc    auditdomain.Service
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("sale.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		rates:       p.Rates,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
	}
}

type lineItem struct {
	bookID   snowflake.ID
	quantity int64
}

// recorded is one line outcome; created is false for a deduplicated repeat.
type recorded struct {
	sale    domain.Sale
	created bool
}

func (s *Service) RecordSale(ctx context.Context, req domain.RecordSaleRequest) (snowflake.ID, error) {
	ids, err := s.RecordOrder(ctx, domain.RecordOrderRequest{
		OrderID: req.OrderID,
		Lines:   []domain.OrderLine{{BookID: req.BookID, Quantity: req.Quantity}},
	})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (s *Service) RecordOrder(ctx context.Context, req domain.RecordOrderRequest) ([]snowflake.ID, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return nil, domain.ErrInvalidOrder
	}
	lines, err := parseLines(req.Lines)
	if err != nil {
		s.metrics.RecordSaleFailure(ctx, "validation")
		return nil, err
	}

	rates := s.rates.Rates()
	results := make([]recorded, 0, len(lines))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			res, err := s.recordLine(ctx, tx, orderID, line, rates)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordSaleFailure(ctx, failureReason(err))
		if isDomainErr(err) {
			return nil, err
		}
		s.log.Error("failed to record order",
			zap.String("order_id", orderID),
			zap.Int("lines", len(lines)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	ids := make([]snowflake.ID, 0, len(results))
	for _, res := range results {
		ids = append(ids, res.sale.ID)
		if res.created {
			s.afterCommit(ctx, res.sale)
		}
	}
	return ids, nil
}

// recordLine runs inside the order transaction; every read and write goes through tx.
func (s *Service) recordLine(ctx context.Context, tx *gorm.DB, orderID string, line lineItem, defaults royalty.Rates) (recorded, error) {
	existing, err := s.repo.FindByOrderAndBook(ctx, tx, orderID, line.bookID)
	if err != nil {
		return recorded{}, err
	}
	if existing != nil {
		return recorded{sale: *existing}, nil
	}

	book, err := s.catalogRepo.FindBookByID(ctx, tx, line.bookID)
	if err != nil {
		return recorded{}, err
	}
	if book == nil {
		return recorded{}, fmt.Errorf("book %s: %w", line.bookID, domain.ErrEntityNotFound)
	}
	if book.FinalPrice < 0 {
		return recorded{}, domain.ErrInvalidPrice
	}

	author, err := s.catalogRepo.FindAuthorByID(ctx, tx, book.AuthorID)
	if err != nil {
		return recorded{}, err
	}
	if author == nil {
		return recorded{}, fmt.Errorf("author %s: %w", book.AuthorID, domain.ErrEntityNotFound)
	}
	publisher, err := s.catalogRepo.FindPublisherByID(ctx, tx, book.PublisherID)
	if err != nil {
		return recorded{}, err
	}
	if publisher == nil {
		return recorded{}, fmt.Errorf("publisher %s: %w", book.PublisherID, domain.ErrEntityNotFound)
	}

	rates := defaults.WithOverrides(author.RoyaltyRate, publisher.RoyaltyRate)
	if err := rates.Validate(); err != nil {
		return recorded{}, err
	}

	split := royalty.Calculate(decimal.NewFromInt(book.FinalPrice), line.quantity, rates).Settle()

	now := s.clock.Now().UTC()
	sale := domain.Sale{
		ID:             s.genID.Generate(),
		OrderID:        orderID,
		BookID:         book.ID,
		BookTitle:      book.Title,
		AuthorID:       author.ID,
		AuthorName:     author.Name,
		PublisherID:    publisher.ID,
		PublisherName:  publisher.Name,
		Quantity:       line.quantity,
		UnitPrice:      book.FinalPrice,
		SaleAmount:     split.SaleAmount,
		PlatformFee:    split.PlatformFee,
		AuthorRoyalty:  split.AuthorRoyalty,
		PublisherShare: split.PublisherShare,
		NetAmount:      split.NetAmount,
		Currency:       book.Currency,
		SoldAt:         now,
		CreatedAt:      now,
	}

	inserted, err := s.repo.InsertSale(ctx, tx, &sale)
	if err != nil {
		return recorded{}, err
	}
	if !inserted {
		// Lost a race with a concurrent recording of the same line.
		existing, err := s.repo.FindByOrderAndBook(ctx, tx, orderID, line.bookID)
		if err != nil {
			return recorded{}, err
		}
		if existing == nil {
			return recorded{}, fmt.Errorf("sale %s/%s vanished after conflict", orderID, line.bookID)
		}
		return recorded{sale: *existing}, nil
	}

	if err := s.repo.IncrementAuthorEarnings(ctx, tx, author.ID, sale.AuthorRoyalty, now); err != nil {
		return recorded{}, err
	}
	if err := s.repo.IncrementPublisherEarnings(ctx, tx, publisher.ID, sale.PublisherShare, now); err != nil {
		return recorded{}, err
	}
	if author.UserID != nil {
		err := s.repo.IncrementWalletBalance(ctx, tx, *author.UserID, sale.AuthorRoyalty, now)
		switch {
		case errors.Is(err, domain.ErrEntityNotFound):
			s.log.Warn("linked wallet missing, skipping credit",
				zap.String("author_id", author.ID.String()),
				zap.String("user_id", author.UserID.String()),
			)
		case err != nil:
			return recorded{}, err
		}
	}

	return recorded{sale: sale, created: true}, nil
}

func (s *Service) afterCommit(ctx context.Context, sale domain.Sale) {
	s.metrics.RecordSale(ctx, sale.Currency, sale.PlatformFee, sale.AuthorRoyalty, sale.PublisherShare)

	s.log.Info("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("order_id", sale.OrderID),
		zap.String("book_id", sale.BookID.String()),
		zap.Int64("sale_amount", sale.SaleAmount),
		zap.Int64("author_royalty", sale.AuthorRoyalty),
		zap.Int64("publisher_share", sale.PublisherShare),
	)

	if s.auditSvc == nil {
		return
	}
	targetID := sale.ID.String()
	_ = s.auditSvc.AuditLog(ctx, "", nil, auditdomain.ActionSaleRecorded, "sale", &targetID, map[string]any{
		"order_id":        sale.OrderID,
		"book_id":         sale.BookID.String(),
		"quantity":        sale.Quantity,
		"sale_amount":     sale.SaleAmount,
		"platform_fee":    sale.PlatformFee,
		"author_royalty":  sale.AuthorRoyalty,
		"publisher_share": sale.PublisherShare,
		"currency":        sale.Currency,
	})
}

func (s *Service) Get(ctx context.Context, id string) (domain.Sale, error) {
	saleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || saleID == 0 {
		return domain.Sale{}, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, saleID)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if item == nil {
		return domain.Sale{}, fmt.Errorf("sale %s: %w", saleID, domain.ErrEntityNotFound)
	}
	return *item, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]domain.Sale, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrInvalidOrder
	}
	items, err := s.repo.ListByOrder(ctx, s.db, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	sales := make([]domain.Sale, 0, len(items))
	for _, item := range items {
		if item != nil {
			sales = append(sales, *item)
		}
	}
	return sales, nil
}

func parseLines(lines []domain.OrderLine) ([]lineItem, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	out := make([]lineItem, 0, len(lines))
	seen := make(map[snowflake.ID]struct{}, len(lines))
	for _, line := range lines {
		bookID, err := snowflake.ParseString(strings.TrimSpace(line.BookID))
		if err != nil || bookID == 0 {
			return nil, domain.ErrInvalidID
		}
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if _, dup := seen[bookID]; dup {
			return nil, fmt.Errorf("book %s listed twice: %w", bookID, domain.ErrInvalidOrder)
		}
		seen[bookID] = struct{}{}
		out = append(out, lineItem{bookID: bookID, quantity: line.Quantity})
	}
	return out, nil
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		domain.ErrEntityNotFound,
		domain.ErrInvalidPrice,
		domain.ErrInvalidQuantity,
		royalty.ErrInvalidRate,
		royalty.ErrRatesExceedSale,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func failureReason(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, domain.ErrEntityNotFound):
		return "entity_not_found"
	case errors.Is(err, royalty.ErrInvalidRate), errors.Is(err, royalty.ErrRatesExceedSale),
		errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrInvalidQuantity):
		return "validation"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "deadline_exceeded"
	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return "serialization"
		case pgUniqueViolation:
			return "conflict"
		}
		return "db"
	default:
		return "persistence"
	}
}
