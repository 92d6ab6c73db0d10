package service

import (
	"context"

	"github.com/smallbiznis/folio/internal/payout/domain"
	"go.uber.org/zap"
)

type logDisburser struct {
	log *zap.Logger
}

// NewLogDisburser records approved payouts for manual settlement.
func NewLogDisburser(log *zap.Logger) domain.Disburser {
	return &logDisburser{log: log.Named("payout.disburser")}
}

func (d *logDisburser) Disburse(ctx context.Context, payout domain.PayoutRequest) error {
	d.log.Info("payout awaiting manual disbursement",
		zap.String("payout_id", payout.ID.String()),
		zap.String("method", payout.PaymentMethod),
		zap.Int64("amount", payout.Amount),
		zap.String("currency", payout.Currency),
	)
	return nil
}
