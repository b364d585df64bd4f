package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/ledger"
	"github.com/boostly/boostly/internal/notification"
)

// Service orchestrates recognitions and endorsements: the ledger owns the
// balance rules, the recorder captures the trail, the notifier tells the
// receiver.
type Service struct {
	ledger   ledger.Ledger
	recorder *audit.Recorder
	notifier notification.Notifier
}

// NewService constructs a recognition service.
func NewService(l ledger.Ledger, recorder *audit.Recorder, notifier notification.Notifier) *Service {
	return &Service{ledger: l, recorder: recorder, notifier: notifier}
}

// RecognizeInput captures one credit grant from sender to receiver.
type RecognizeInput struct {
	SenderID      string
	ReceiverID    string
	Credits       int
	Note          string
	SourceAddress string
}

// RecognizeResult describes the outcome of a recognition.
type RecognizeResult struct {
	RecognitionID string
	GrantBalance  int
	SentThisMonth int
	CompletedAt   time.Time
}

// Recognize transfers credits through the ledger, then records the audit
// entry and notifies the receiver. Audit and notification run only after the
// ledger has committed, and neither can fail the operation.
func (s *Service) Recognize(ctx context.Context, input RecognizeInput) (RecognizeResult, error) {
	res, err := s.ledger.Recognize(ctx, ledger.RecognizeInput{
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Credits:    input.Credits,
		Note:       input.Note,
	})
	if err != nil {
		return RecognizeResult{}, err
	}

	if s.recorder != nil {
		details := map[string]any{
			"receiver_id": input.ReceiverID,
			"credits":     input.Credits,
		}
		if input.Note != "" {
			details["note"] = input.Note
		}
		s.recorder.Record(ctx, audit.Entry{
			ActorID:       input.SenderID,
			Action:        "recognize",
			EntityType:    "recognition",
			EntityID:      res.RecognitionID,
			Details:       details,
			SourceAddress: input.SourceAddress,
		})
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindRecognitionReceived,
			Destination: input.ReceiverID,
			Body:        fmt.Sprintf("You received %d credits", input.Credits),
		})
	}

	return RecognizeResult{
		RecognitionID: res.RecognitionID,
		GrantBalance:  res.SenderGrantBalance,
		SentThisMonth: res.SenderSentThisMonth,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

// EndorseInput captures one endorsement attempt.
type EndorseInput struct {
	RecognitionID string
	EndorserID    string
	SourceAddress string
}

// Endorse attaches a social signal to an existing recognition. No balances
// move; that is the point of endorsements, not an omission.
func (s *Service) Endorse(ctx context.Context, input EndorseInput) (ledger.Endorsement, error) {
	endorsement, err := s.ledger.Endorse(ctx, input.RecognitionID, input.EndorserID)
	if err != nil {
		return ledger.Endorsement{}, err
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, audit.Entry{
			ActorID:       input.EndorserID,
			Action:        "endorse",
			EntityType:    "endorsement",
			EntityID:      endorsement.ID,
			Details:       map[string]any{"recognition_id": input.RecognitionID},
			SourceAddress: input.SourceAddress,
		})
	}

	if s.notifier != nil {
		if rec, err := s.ledger.Recognition(ctx, input.RecognitionID); err == nil {
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:        notification.KindEndorsementReceived,
				Destination: rec.ReceiverID,
				Body:        "Your recognition was endorsed",
			})
		}
	}

	return endorsement, nil
}
