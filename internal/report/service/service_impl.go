package service

import (
	"context"
	"io"
	"strings"

	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/observability/metrics"
	"github.com/smallbiznis/folio/internal/report/domain"
	"github.com/smallbiznis/folio/internal/report/export"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Cfg     config.Config
	Repo    domain.Repository
	Cache   domain.ViewCache
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	currency string
	repo     domain.Repository
	cache    domain.ViewCache
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	currency := strings.ToUpper(strings.TrimSpace(p.Cfg.Currency))
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("report.service"),
		clock:    p.Clock,
		currency: currency,
		repo:     p.Repo,
		cache:    p.Cache,
		metrics:  p.Metrics,
	}
}

func (s *Service) ListSales(ctx context.Context, q domain.Query) ([]saledomain.Sale, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	items, err := s.repo.ListSales(ctx, s.db, q)
	if err != nil {
		return nil, err
	}
	sales := make([]saledomain.Sale, 0, len(items))
	for _, item := range items {
		if item != nil {
			sales = append(sales, *item)
		}
	}
	return sales, nil
}

func (s *Service) Monthly(ctx context.Context, q domain.Query) ([]domain.MonthlyBucket, error) {
	sales, err := s.ListSales(ctx, q)
	if err != nil {
		return nil, err
	}
	return domain.AggregateMonthly(sales, q.Selector.Kind), nil
}

func (s *Service) Dashboard(ctx context.Context, q domain.Query) (domain.View, error) {
	if err := q.Validate(); err != nil {
		return domain.View{}, err
	}

	key := q.CacheKey()
	sales, err := s.ListSales(ctx, q)
	if err == nil {
		view := domain.BuildView(sales, q.Selector.Kind, domain.SourceLive, s.clock.Now())
		if cacheErr := s.cache.Set(ctx, key, view); cacheErr != nil {
			s.log.Warn("failed to cache report view", zap.String("key", key), zap.Error(cacheErr))
		}
		return view, nil
	}

	s.log.Warn("report query failed, serving degraded view",
		zap.String("selector", string(q.Selector.Kind)),
		zap.Error(err),
	)

	cached, ok, cacheErr := s.cache.Get(ctx, key)
	if cacheErr != nil {
		s.log.Warn("report cache unavailable", zap.String("key", key), zap.Error(cacheErr))
	}
	if ok {
		s.metrics.RecordReportFallback(ctx, string(domain.SourceCache))
		cached.Degraded = true
		cached.Source = domain.SourceCache
		return cached, nil
	}

	s.metrics.RecordReportFallback(ctx, string(domain.SourceSample))
	return domain.BuildView(domain.SampleSales(), q.Selector.Kind, domain.SourceSample, s.clock.Now()), nil
}

// Exports always read live data; a failed query is returned, never replaced by a fallback.
func (s *Service) ExportCSV(ctx context.Context, q domain.Query, w io.Writer) error {
	sales, err := s.ListSales(ctx, q)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, q.Selector.Kind, sales)
}

func (s *Service) ExportXLSX(ctx context.Context, q domain.Query, w io.Writer) error {
	sales, err := s.ListSales(ctx, q)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, q.Selector.Kind, sales)
}

func (s *Service) StatementPDF(ctx context.Context, q domain.Query) ([]byte, error) {
	sales, err := s.ListSales(ctx, q)
	if err != nil {
		return nil, err
	}

	recipient := "All sales"
	if len(sales) > 0 {
		switch q.Selector.Kind {
		case domain.SelectorAuthor:
			recipient = sales[0].AuthorName
		case domain.SelectorPublisher:
			recipient = sales[0].PublisherName
		}
	}

	out, err := export.StatementPDF(export.Statement{
		Title:       "Royalty statement",
		Recipient:   recipient,
		Kind:        q.Selector.Kind,
		Currency:    s.currency,
		Range:       q.Range,
		Summary:     domain.Summarize(sales),
		Monthly:     domain.AggregateMonthly(sales, q.Selector.Kind),
		GeneratedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ExportFileName(q domain.Query, ext string) string {
	report := "sales"
	if ext == "pdf" {
		report = "statement"
	}
	return export.FileName(q, report, ext, s.clock.Now())
}
