package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	rules        Rules
	accounts     map[string]Account
	recognitions map[string]Recognition
	endorsements map[string]Endorsement // keyed recognitionID:endorserID
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and dev mode. One mutex serializes all operations, which trivially
// satisfies the per-account atomicity contract.
func NewInMemory(rules Rules) Ledger {
	return &inMemoryLedger{
		rules:        rules,
		accounts:     make(map[string]Account),
		recognitions: make(map[string]Recognition),
		endorsements: make(map[string]Endorsement),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[userID]; !exists {
		l.accounts[userID] = Account{UserID: userID, GrantBalance: l.rules.BaseGrant}
	}
	return nil
}

func (l *inMemoryLedger) Account(_ context.Context, userID string) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, exists := l.accounts[userID]
	if !exists {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

func (l *inMemoryLedger) Recognition(_ context.Context, id string) (Recognition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, exists := l.recognitions[id]
	if !exists {
		return Recognition{}, ErrRecognitionNotFound
	}
	return rec, nil
}

func (l *inMemoryLedger) Recognize(_ context.Context, input RecognizeInput) (RecognitionResult, error) {
	if input.Credits <= 0 {
		return RecognitionResult{}, ErrInvalidCredits
	}
	if input.SenderID == input.ReceiverID {
		return RecognitionResult{}, ErrSelfRecognition
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sender, ok := l.accounts[input.SenderID]
	if !ok {
		return RecognitionResult{}, ErrAccountNotFound
	}
	receiver, ok := l.accounts[input.ReceiverID]
	if !ok {
		return RecognitionResult{}, ErrReceiverNotFound
	}

	if sender.GrantBalance < input.Credits {
		return RecognitionResult{}, ErrInsufficientGrantBalance
	}
	if sender.SentThisMonth+input.Credits > l.rules.MonthlySendCap {
		return RecognitionResult{}, ErrMonthlyLimitExceeded
	}

	sender.GrantBalance -= input.Credits
	sender.SentThisMonth += input.Credits
	receiver.RedeemableBalance += input.Credits
	receiver.TotalReceived += input.Credits
	l.accounts[input.SenderID] = sender
	l.accounts[input.ReceiverID] = receiver

	rec := Recognition{
		ID:         uuid.NewString(),
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Credits:    input.Credits,
		Note:       input.Note,
		CreatedAt:  time.Now().UTC(),
	}
	l.recognitions[rec.ID] = rec

	return RecognitionResult{
		RecognitionID:             rec.ID,
		SenderGrantBalance:        sender.GrantBalance,
		SenderSentThisMonth:       sender.SentThisMonth,
		ReceiverRedeemableBalance: receiver.RedeemableBalance,
	}, nil
}

func (l *inMemoryLedger) Endorse(_ context.Context, recognitionID, endorserID string) (Endorsement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.recognitions[recognitionID]; !exists {
		return Endorsement{}, ErrRecognitionNotFound
	}
	key := recognitionID + ":" + endorserID
	if _, exists := l.endorsements[key]; exists {
		return Endorsement{}, ErrDuplicateEndorsement
	}

	endorsement := Endorsement{
		ID:            uuid.NewString(),
		RecognitionID: recognitionID,
		EndorserID:    endorserID,
		CreatedAt:     time.Now().UTC(),
	}
	l.endorsements[key] = endorsement
	return endorsement, nil
}

func (l *inMemoryLedger) Redeem(_ context.Context, userID string, credits int) (RedemptionResult, error) {
	if credits <= 0 {
		return RedemptionResult{}, ErrInvalidCredits
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[userID]
	if !ok {
		return RedemptionResult{}, ErrAccountNotFound
	}
	if acc.RedeemableBalance < credits {
		return RedemptionResult{}, ErrInsufficientRedeemableBalance
	}

	acc.RedeemableBalance -= credits
	l.accounts[userID] = acc

	return RedemptionResult{
		RedemptionID:      uuid.NewString(),
		VoucherValue:      credits * l.rules.VoucherRate,
		RedeemableBalance: acc.RedeemableBalance,
	}, nil
}

func (l *inMemoryLedger) ResetMonth(_ context.Context, now time.Time) (ResetOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.accounts))
	for id := range l.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	outcome := ResetOutcome{}
	for _, id := range ids {
		acc := l.accounts[id]
		if acc.LastResetDate != nil && sameMonth(*acc.LastResetDate, now) {
			continue
		}
		carry := acc.GrantBalance
		if carry < 0 {
			carry = 0
		}
		if carry > l.rules.CarryCap {
			carry = l.rules.CarryCap
		}
		change := AccountReset{UserID: id, GrantBefore: acc.GrantBalance}
		acc.GrantBalance = l.rules.BaseGrant + carry
		acc.SentThisMonth = 0
		resetAt := now
		acc.LastResetDate = &resetAt
		l.accounts[id] = acc
		change.GrantAfter = acc.GrantBalance
		outcome.ResetCount++
		outcome.Changes = append(outcome.Changes, change)
	}
	return outcome, nil
}

func (l *inMemoryLedger) Top(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	receivedCounts := make(map[string]int)
	for _, rec := range l.recognitions {
		receivedCounts[rec.ReceiverID]++
	}
	endorsementTotals := make(map[string]int)
	for _, e := range l.endorsements {
		if rec, ok := l.recognitions[e.RecognitionID]; ok {
			endorsementTotals[rec.ReceiverID]++
		}
	}

	entries := make([]LeaderboardEntry, 0, len(l.accounts))
	for id, acc := range l.accounts {
		entries = append(entries, LeaderboardEntry{
			UserID:           id,
			TotalReceived:    acc.TotalReceived,
			RecognitionCount: receivedCounts[id],
			EndorsementTotal: endorsementTotals[id],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalReceived != entries[j].TotalReceived {
			return entries[i].TotalReceived > entries[j].TotalReceived
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
