package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/payout/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payout *domain.PayoutRequest) error {
	return db.WithContext(ctx).Create(payout).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PayoutRequest, error) {
	var payout domain.PayoutRequest
	res := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&payout)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &payout, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.PayoutRequest, error) {
	var payouts []*domain.PayoutRequest
	stmt := db.WithContext(ctx).Model(&domain.PayoutRequest{})

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Role != "" {
		stmt = stmt.Where("role = ?", filter.Role)
	}
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(requested_at < ?) OR (requested_at = ? AND id < ?)",
			filter.Cursor.RequestedAt,
			filter.Cursor.RequestedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("requested_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repo) Outstanding(ctx context.Context, db *gorm.DB, role domain.Role, userID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) FROM payout_requests
		 WHERE role = ? AND user_id = ? AND status <> ?`,
		role,
		userID,
		domain.StatusRejected,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, t domain.Transition) (bool, error) {
	updates := map[string]any{
		"status":       t.To,
		"processed_at": t.ProcessedAt,
		"processed_by": t.ProcessedBy,
		"updated_at":   t.ProcessedAt,
	}
	if t.Notes != nil {
		updates["notes"] = *t.Notes
	}
	res := db.WithContext(ctx).
		Model(&domain.PayoutRequest{}).
		Where("id = ? AND status = ?", t.ID, t.From).
		UpdateColumns(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
