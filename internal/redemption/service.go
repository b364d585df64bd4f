package redemption

import (
	"context"
	"time"

	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/ledger"
)

// Service converts redeemable credits into vouchers.
type Service struct {
	ledger   ledger.Ledger
	recorder *audit.Recorder
}

// NewService constructs a redemption service.
func NewService(l ledger.Ledger, recorder *audit.Recorder) *Service {
	return &Service{ledger: l, recorder: recorder}
}

// RedeemInput captures one redemption attempt.
type RedeemInput struct {
	UserID        string
	Credits       int
	SourceAddress string
}

// RedeemResult describes the issued voucher.
type RedeemResult struct {
	RedemptionID      string
	VoucherValue      int
	RedeemableBalance int
	CompletedAt       time.Time
}

// Redeem debits the user's redeemable balance and issues a voucher, recording
// the audit entry after the ledger commit.
func (s *Service) Redeem(ctx context.Context, input RedeemInput) (RedeemResult, error) {
	res, err := s.ledger.Redeem(ctx, input.UserID, input.Credits)
	if err != nil {
		return RedeemResult{}, err
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, audit.Entry{
			ActorID:    input.UserID,
			Action:     "redeem",
			EntityType: "redemption",
			EntityID:   res.RedemptionID,
			Details: map[string]any{
				"credits":       input.Credits,
				"voucher_value": res.VoucherValue,
			},
			SourceAddress: input.SourceAddress,
		})
	}

	return RedeemResult{
		RedemptionID:      res.RedemptionID,
		VoucherValue:      res.VoucherValue,
		RedeemableBalance: res.RedeemableBalance,
		CompletedAt:       time.Now().UTC(),
	}, nil
}
