package admin

import (
	"context"
	"time"

	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/ledger"
)

// Service exposes privileged ledger operations. Callers are expected to have
// passed a role check before reaching it.
type Service struct {
	ledger   ledger.Ledger
	recorder *audit.Recorder
}

// NewService constructs an admin service.
func NewService(l ledger.Ledger, recorder *audit.Recorder) *Service {
	return &Service{ledger: l, recorder: recorder}
}

// ResetInput identifies the actor triggering the monthly reset. Now defaults
// to the current time when zero.
type ResetInput struct {
	ActorID       string
	SourceAddress string
	Now           time.Time
}

// ResetMonth sweeps every account, restoring send capacity with bounded
// carry-forward. The sweep is idempotent per account per calendar month; the
// audit entry carries the per-account before/after record.
func (s *Service) ResetMonth(ctx context.Context, input ResetInput) (ledger.ResetOutcome, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	outcome, err := s.ledger.ResetMonth(ctx, now)
	if err != nil {
		return outcome, err
	}

	if s.recorder != nil {
		changes := make([]map[string]any, 0, len(outcome.Changes))
		for _, c := range outcome.Changes {
			changes = append(changes, map[string]any{
				"user_id":      c.UserID,
				"grant_before": c.GrantBefore,
				"grant_after":  c.GrantAfter,
			})
		}
		s.recorder.Record(ctx, audit.Entry{
			ActorID:    input.ActorID,
			Action:     "reset_month",
			EntityType: "account",
			Details: map[string]any{
				"reset_count": outcome.ResetCount,
				"changes":     changes,
			},
			SourceAddress: input.SourceAddress,
		})
	}

	return outcome, nil
}

// AuditTrail exposes the audit query surface for administrative reporting.
func (s *Service) AuditTrail(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	return s.recorder.Search(ctx, filter)
}
