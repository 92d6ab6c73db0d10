package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"github.com/smallbiznis/folio/internal/audit/masking"
	catalogdomain "github.com/smallbiznis/folio/internal/catalog/domain"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	obscontext "github.com/smallbiznis/folio/internal/observability/context"
	"github.com/smallbiznis/folio/internal/observability/metrics"
	"github.com/smallbiznis/folio/internal/payout/domain"
	"github.com/smallbiznis/folio/internal/ratelimit"
	"github.com/smallbiznis/folio/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const keyPayoutRecipient = "folio:payout:%s:%s"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Cfg         config.Config
	Repo        domain.Repository
	CatalogRepo catalogdomain.Repository
	Disburser   domain.Disburser
	Locker      *ratelimit.Locker   `optional:"true"`
	AuditSvc    auditdomain.Service `optional:"true"`
	Metrics     *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	currency    string
	lockTTL     time.Duration
	repo        domain.Repository
	catalogRepo catalogdomain.Repository
	disburser   domain.Disburser
	locker      *ratelimit.Locker
	auditSvc    auditdomain.Service
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	currency := strings.ToUpper(strings.TrimSpace(p.Cfg.Currency))
	if currency == "" {
		currency = "USD"
	}
	lockTTL := time.Duration(p.Cfg.PayoutLockTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payout.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		currency:    currency,
		lockTTL:     lockTTL,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		disburser:   p.Disburser,
		locker:      p.Locker,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
	}
}

func (s *Service) Request(ctx context.Context, req domain.CreatePayoutRequest) (domain.PayoutRequest, error) {
	role, err := parseRole(req.Role)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	userID, err := parseID(req.UserID)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	if req.Amount <= 0 {
		return domain.PayoutRequest{}, domain.ErrInvalidAmount
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return domain.PayoutRequest{}, domain.ErrInvalidPaymentMethod
	}

	now := s.clock.Now().UTC()
	payout := domain.PayoutRequest{
		ID:             s.genID.Generate(),
		UserID:         userID,
		Role:           role,
		Amount:         req.Amount,
		Currency:       s.currency,
		Status:         domain.StatusPending,
		PaymentMethod:  method,
		PaymentDetails: strings.TrimSpace(req.PaymentDetails),
		Notes:          normalizePointer(req.Notes),
		RequestedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The balance check and insert must not interleave with another request for the
	// same recipient. The redis lock fails fast across instances; the recipient row
	// lock taken in the transaction holds with or without redis.
	key := fmt.Sprintf(keyPayoutRecipient, role, userID)
	err = s.locker.WithLock(ctx, key, s.lockTTL, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			name, earnings, err := s.recipient(ctx, tx, role, userID, true)
			if err != nil {
				return err
			}
			outstanding, err := s.repo.Outstanding(ctx, tx, role, userID)
			if err != nil {
				return err
			}
			if payout.Amount > earnings-outstanding {
				return domain.ErrInsufficientBalance
			}
			payout.UserName = name
			return s.repo.Insert(ctx, tx, &payout)
		})
	})
	if errors.Is(err, ratelimit.ErrLocked) {
		return domain.PayoutRequest{}, domain.ErrPayoutInProgress
	}
	if err != nil {
		return domain.PayoutRequest{}, err
	}

	s.afterChange(ctx, payout, auditdomain.ActionPayoutRequested)
	return payout, nil
}

func (s *Service) Approve(ctx context.Context, id string, req domain.ProcessPayoutRequest) (domain.PayoutRequest, error) {
	payout, err := s.transition(ctx, id, domain.StatusApproved, req.Notes)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	s.afterChange(ctx, payout, auditdomain.ActionPayoutApproved)

	if err := s.disburser.Disburse(ctx, payout); err != nil {
		s.log.Error("payout disbursement failed",
			zap.String("payout_id", payout.ID.String()),
			zap.Error(err),
		)
	}
	return payout, nil
}

func (s *Service) Reject(ctx context.Context, id string, req domain.ProcessPayoutRequest) (domain.PayoutRequest, error) {
	payout, err := s.transition(ctx, id, domain.StatusRejected, req.Notes)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	s.afterChange(ctx, payout, auditdomain.ActionPayoutRejected)
	return payout, nil
}

func (s *Service) MarkPaid(ctx context.Context, id string, req domain.ProcessPayoutRequest) (domain.PayoutRequest, error) {
	payout, err := s.transition(ctx, id, domain.StatusPaid, req.Notes)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	s.afterChange(ctx, payout, auditdomain.ActionPayoutPaid)
	return payout, nil
}

func (s *Service) transition(ctx context.Context, id string, to domain.Status, notes *string) (domain.PayoutRequest, error) {
	payoutID, err := parseID(id)
	if err != nil {
		return domain.PayoutRequest{}, err
	}

	var processedBy *string
	if role, actorID := obscontext.ActorFromContext(ctx); role != "" {
		value := role
		if actorID != "" {
			value += ":" + actorID
		}
		processedBy = &value
	}

	var out domain.PayoutRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, payoutID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if !domain.CanTransition(current.Status, to) {
			return fmt.Errorf("%s -> %s: %w", current.Status, to, domain.ErrInvalidTransition)
		}

		ok, err := s.repo.Transition(ctx, tx, domain.Transition{
			ID:          payoutID,
			From:        current.Status,
			To:          to,
			ProcessedAt: s.clock.Now().UTC(),
			ProcessedBy: processedBy,
			Notes:       normalizePointer(notes),
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s changed concurrently: %w", payoutID, domain.ErrInvalidTransition)
		}

		updated, err := s.repo.FindByID(ctx, tx, payoutID)
		if err != nil {
			return err
		}
		out = *updated
		return nil
	})
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.PayoutRequest, error) {
	payoutID, err := parseID(id)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	payout, err := s.repo.FindByID(ctx, s.db, payoutID)
	if err != nil {
		return domain.PayoutRequest{}, err
	}
	if payout == nil {
		return domain.PayoutRequest{}, domain.ErrNotFound
	}
	return *payout, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPayoutRequest) (domain.ListPayoutResponse, error) {
	filter := domain.ListFilter{}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		switch filter.Status {
		case domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusPaid:
		default:
			return domain.ListPayoutResponse{}, domain.ErrInvalidStatus
		}
	}
	if strings.TrimSpace(req.Role) != "" {
		role, err := parseRole(req.Role)
		if err != nil {
			return domain.ListPayoutResponse{}, err
		}
		filter.Role = role
	}
	if strings.TrimSpace(req.UserID) != "" {
		userID, err := parseID(req.UserID)
		if err != nil {
			return domain.ListPayoutResponse{}, err
		}
		filter.UserID = &userID
	}
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListPayoutResponse{}, pagination.ErrInvalidPageToken
		}
		requestedAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListPayoutResponse{}, pagination.ErrInvalidPageToken
		}
		id, err := parseID(decoded.ID)
		if err != nil {
			return domain.ListPayoutResponse{}, pagination.ErrInvalidPageToken
		}
		filter.Cursor = &domain.PayoutCursor{ID: id, RequestedAt: requestedAt}
	}

	filter.Limit = pagination.NormalizeSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListPayoutResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, filter.Limit, func(p *domain.PayoutRequest) pagination.Cursor {
		return pagination.Cursor{ID: p.ID.String(), CreatedAt: p.RequestedAt.UTC().Format(time.RFC3339Nano)}
	})

	payouts := make([]domain.PayoutRequest, 0, len(items))
	for _, item := range items {
		if item != nil {
			payouts = append(payouts, *item)
		}
	}
	return domain.ListPayoutResponse{PageInfo: pageInfo, Payouts: payouts}, nil
}

func (s *Service) Balance(ctx context.Context, role string, userID string) (domain.Balance, error) {
	r, err := parseRole(role)
	if err != nil {
		return domain.Balance{}, err
	}
	id, err := parseID(userID)
	if err != nil {
		return domain.Balance{}, err
	}

	_, earnings, err := s.recipient(ctx, s.db, r, id, false)
	if err != nil {
		return domain.Balance{}, err
	}
	outstanding, err := s.repo.Outstanding(ctx, s.db, r, id)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{
		TotalEarnings: earnings,
		Outstanding:   outstanding,
		Available:     earnings - outstanding,
	}, nil
}

// recipient loads the payee's name and lifetime earnings. With lock set the row
// stays locked until db's transaction ends.
func (s *Service) recipient(ctx context.Context, db *gorm.DB, role domain.Role, id snowflake.ID, lock bool) (string, int64, error) {
	switch role {
	case domain.RoleAuthor:
		findAuthor := s.catalogRepo.FindAuthorByID
		if lock {
			findAuthor = s.catalogRepo.LockAuthorByID
		}
		author, err := findAuthor(ctx, db, id)
		if err != nil {
			return "", 0, err
		}
		if author == nil {
			return "", 0, fmt.Errorf("author %s: %w", id, domain.ErrNotFound)
		}
		return author.Name, author.TotalEarnings, nil
	default:
		findPublisher := s.catalogRepo.FindPublisherByID
		if lock {
			findPublisher = s.catalogRepo.LockPublisherByID
		}
		publisher, err := findPublisher(ctx, db, id)
		if err != nil {
			return "", 0, err
		}
		if publisher == nil {
			return "", 0, fmt.Errorf("publisher %s: %w", id, domain.ErrNotFound)
		}
		return publisher.Name, publisher.TotalEarnings, nil
	}
}

func (s *Service) afterChange(ctx context.Context, payout domain.PayoutRequest, action string) {
	s.metrics.RecordPayoutEvent(ctx, string(payout.Role), string(payout.Status))
	s.log.Info("payout "+string(payout.Status),
		zap.String("payout_id", payout.ID.String()),
		zap.String("role", string(payout.Role)),
		zap.Int64("amount", payout.Amount),
	)

	if s.auditSvc == nil {
		return
	}
	targetID := payout.ID.String()
	_ = s.auditSvc.AuditLog(ctx, "", nil, action, "payout_request", &targetID, masking.MaskMetadata(map[string]any{
		"recipient_id":    payout.UserID.String(),
		"role":            string(payout.Role),
		"amount":          payout.Amount,
		"currency":        payout.Currency,
		"status":          string(payout.Status),
		"payment_method":  payout.PaymentMethod,
		"payment_details": payout.PaymentDetails,
	}))
}

func parseRole(value string) (domain.Role, error) {
	role := domain.Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case domain.RoleAuthor, domain.RolePublisher:
		return role, nil
	}
	return "", domain.ErrInvalidRole
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizePointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
