package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
	"gorm.io/gorm"
)

var (
	ErrInvalidSelector = errors.New("invalid_selector")
	ErrInvalidRange    = errors.New("invalid_date_range")
)

type SelectorKind string

const (
	SelectorGlobal    SelectorKind = "global"
	SelectorAuthor    SelectorKind = "author"
	SelectorPublisher SelectorKind = "publisher"
)

// Selector narrows a report to one author, one publisher, or every sale.
type Selector struct {
	Kind SelectorKind
	ID   snowflake.ID
}

// DateRange bounds sold_at; both ends are inclusive and either may be open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

type Query struct {
	Selector Selector
	Range    DateRange
}

func (q Query) Validate() error {
	switch q.Selector.Kind {
	case SelectorGlobal:
	case SelectorAuthor, SelectorPublisher:
		if q.Selector.ID == 0 {
			return ErrInvalidSelector
		}
	default:
		return ErrInvalidSelector
	}
	if q.Range.From != nil && q.Range.To != nil && q.Range.From.After(*q.Range.To) {
		return ErrInvalidRange
	}
	return nil
}

func (q Query) CacheKey() string {
	parts := []string{"report", string(q.Selector.Kind)}
	if q.Selector.ID != 0 {
		parts = append(parts, q.Selector.ID.String())
	}
	parts = append(parts, formatBound(q.Range.From), formatBound(q.Range.To))
	return strings.Join(parts, ":")
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprint(t.UTC().Unix())
}

// MonthlyBucket sums one calendar month (UTC). Royalty is the figure relevant to
// the selector: author royalty, publisher share, or platform fee for global reports.
type MonthlyBucket struct {
	Period                string          `json:"period"`
	Year                  int             `json:"year"`
	Month                 int             `json:"month"`
	SalesCount            int64           `json:"sales_count"`
	Quantity              int64           `json:"quantity"`
	SaleAmount            int64           `json:"sale_amount"`
	Royalty               int64           `json:"royalty"`
	AverageRoyaltyPerUnit decimal.Decimal `json:"average_royalty_per_unit"`
}

type Summary struct {
	SalesCount     int64 `json:"sales_count"`
	Quantity       int64 `json:"quantity"`
	SaleAmount     int64 `json:"sale_amount"`
	PlatformFee    int64 `json:"platform_fee"`
	AuthorRoyalty  int64 `json:"author_royalty"`
	PublisherShare int64 `json:"publisher_share"`
	NetAmount      int64 `json:"net_amount"`
}

type Source string

const (
	SourceLive   Source = "live"
	SourceCache  Source = "cache"
	SourceSample Source = "sample"
)

// View is what the dashboard renders. Degraded views come from the cache or sample data.
type View struct {
	Sales       []saledomain.Sale `json:"sales"`
	Monthly     []MonthlyBucket   `json:"monthly"`
	Summary     Summary           `json:"summary"`
	Degraded    bool              `json:"degraded"`
	Source      Source            `json:"source"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type Repository interface {
	// ListSales returns matching sales ordered by sold_at desc, id desc.
	ListSales(ctx context.Context, db *gorm.DB, q Query) ([]*saledomain.Sale, error)
}

// ViewCache keeps the last good dashboard view per query.
type ViewCache interface {
	Get(ctx context.Context, key string) (View, bool, error)
	Set(ctx context.Context, key string, view View) error
}
