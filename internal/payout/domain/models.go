package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

type Role string

const (
	RoleAuthor    Role = "author"
	RolePublisher Role = "publisher"
)

// PayoutRequest asks to convert accrued earnings into an external payment.
// UserID is the author or publisher id, depending on Role. Amount is in minor units.
type PayoutRequest struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID         snowflake.ID `gorm:"not null;index:ix_payout_recipient,priority:2" json:"user_id"`
	UserName       string       `gorm:"not null" json:"user_name"`
	Role           Role         `gorm:"type:varchar(32);not null;index:ix_payout_recipient,priority:1" json:"role"`
	Amount         int64        `gorm:"not null" json:"amount"`
	Currency       string       `gorm:"type:text;not null" json:"currency"`
	Status         Status       `gorm:"type:varchar(32);not null;index" json:"status"`
	PaymentMethod  string       `gorm:"not null" json:"payment_method"`
	PaymentDetails string       `gorm:"not null" json:"payment_details"`
	Notes          *string      `json:"notes,omitempty"`
	RequestedAt    time.Time    `gorm:"not null" json:"requested_at"`
	ProcessedAt    *time.Time   `json:"processed_at,omitempty"`
	ProcessedBy    *string      `json:"processed_by,omitempty"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (PayoutRequest) TableName() string { return "payout_requests" }

// CanTransition encodes pending -> approved|rejected and approved -> paid.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusPaid
	default:
		return false
	}
}

type PayoutCursor struct {
	ID          snowflake.ID
	RequestedAt time.Time
}

type ListFilter struct {
	Status Status
	Role   Role
	UserID *snowflake.ID
	Cursor *PayoutCursor
	Limit  int
}

type Transition struct {
	ID          snowflake.ID
	From        Status
	To          Status
	ProcessedAt time.Time
	ProcessedBy *string
	Notes       *string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payout *PayoutRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PayoutRequest, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*PayoutRequest, error)
	// Outstanding sums every non-rejected request for the recipient.
	Outstanding(ctx context.Context, db *gorm.DB, role Role, userID snowflake.ID) (int64, error)
	// Transition applies the change only when the row is still in From; it reports whether it did.
	Transition(ctx context.Context, db *gorm.DB, t Transition) (bool, error)
}

// Disburser sends money for an approved payout. Payment rails are outside this
// service; the default implementation only logs.
type Disburser interface {
	Disburse(ctx context.Context, payout PayoutRequest) error
}
