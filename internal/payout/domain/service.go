package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/folio/pkg/db/pagination"
)

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidRole          = errors.New("invalid_role")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInsufficientBalance  = errors.New("insufficient_balance")
	ErrInvalidTransition    = errors.New("invalid_transition")
	ErrPayoutInProgress     = errors.New("payout_in_progress")
	ErrNotFound             = errors.New("not_found")
)

type CreatePayoutRequest struct {
	Role           string  `json:"role"`
	UserID         string  `json:"user_id"`
	Amount         int64   `json:"amount"`
	PaymentMethod  string  `json:"payment_method"`
	PaymentDetails string  `json:"payment_details"`
	Notes          *string `json:"notes"`
}

type ProcessPayoutRequest struct {
	Notes *string `json:"notes"`
}

type ListPayoutRequest struct {
	pagination.Pagination
	Status string
	Role   string
	UserID string
}

type ListPayoutResponse struct {
	pagination.PageInfo
	Payouts []PayoutRequest `json:"payouts"`
}

// Balance is what a recipient may still request: earnings minus non-rejected payouts.
type Balance struct {
	TotalEarnings int64 `json:"total_earnings"`
	Outstanding   int64 `json:"outstanding"`
	Available     int64 `json:"available"`
}

type Service interface {
	Request(ctx context.Context, req CreatePayoutRequest) (PayoutRequest, error)
	Approve(ctx context.Context, id string, req ProcessPayoutRequest) (PayoutRequest, error)
	Reject(ctx context.Context, id string, req ProcessPayoutRequest) (PayoutRequest, error)
	MarkPaid(ctx context.Context, id string, req ProcessPayoutRequest) (PayoutRequest, error)
	Get(ctx context.Context, id string) (PayoutRequest, error)
	List(ctx context.Context, req ListPayoutRequest) (ListPayoutResponse, error)
	Balance(ctx context.Context, role string, userID string) (Balance, error)
}
