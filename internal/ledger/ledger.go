package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredits occurs when a caller supplies a zero or negative credit amount.
	ErrInvalidCredits = errors.New("credits must be positive")

	// ErrSelfRecognition occurs when a sender attempts to recognize themselves.
	ErrSelfRecognition = errors.New("cannot send credits to yourself")

	// ErrInsufficientGrantBalance occurs when the sender lacks grant balance
	// to cover a recognition.
	ErrInsufficientGrantBalance = errors.New("insufficient grant balance")

	// ErrMonthlyLimitExceeded occurs when a recognition would push the sender
	// past the monthly send cap.
	ErrMonthlyLimitExceeded = errors.New("monthly sending limit exceeded")

	// ErrAccountNotFound indicates the acting user has no ledger account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrReceiverNotFound indicates the recognition target has no ledger account.
	ErrReceiverNotFound = errors.New("receiver not found")

	// ErrRecognitionNotFound indicates the referenced recognition does not exist.
	ErrRecognitionNotFound = errors.New("recognition not found")

	// ErrDuplicateEndorsement occurs when an endorser endorses the same
	// recognition twice.
	ErrDuplicateEndorsement = errors.New("already endorsed")

	// ErrInsufficientRedeemableBalance occurs when a redemption exceeds the
	// user's redeemable balance.
	ErrInsufficientRedeemableBalance = errors.New("insufficient redeemable balance")
)

// Rules captures the tunable constants governing credit movement. They are
// injected at construction so no cap or rate is hard-coded at a use site.
type Rules struct {
	MonthlySendCap int
	CarryCap       int
	BaseGrant      int
	VoucherRate    int
}

// DefaultRules returns the platform defaults: 100 credits to send per month,
// carry-forward capped at 50, fresh accounts start with a full grant, and one
// credit redeems for 5 currency units.
func DefaultRules() Rules {
	return Rules{MonthlySendCap: 100, CarryCap: 50, BaseGrant: 100, VoucherRate: 5}
}

// Account holds the four balance counters tracked per user.
type Account struct {
	UserID            string
	GrantBalance      int
	SentThisMonth     int
	RedeemableBalance int
	TotalReceived     int
	LastResetDate     *time.Time
}

// Recognition is an immutable record of one credit transfer.
type Recognition struct {
	ID         string
	SenderID   string
	ReceiverID string
	Credits    int
	Note       string
	CreatedAt  time.Time
}

// Endorsement is an immutable social signal attached to a recognition.
// At most one exists per (recognition, endorser) pair.
type Endorsement struct {
	ID            string
	RecognitionID string
	EndorserID    string
	CreatedAt     time.Time
}

// RecognizeInput captures the data needed to move credits between users.
type RecognizeInput struct {
	SenderID   string
	ReceiverID string
	Credits    int
	Note       string
}

// RecognitionResult describes the ledger outcome of a recognition.
type RecognitionResult struct {
	RecognitionID             string
	SenderGrantBalance        int
	SenderSentThisMonth       int
	ReceiverRedeemableBalance int
}

// RedemptionResult describes the outcome of converting credits to a voucher.
type RedemptionResult struct {
	RedemptionID      string
	VoucherValue      int
	RedeemableBalance int
}

// AccountReset records the grant balance of one account before and after a
// monthly reset, for audit purposes.
type AccountReset struct {
	UserID      string
	GrantBefore int
	GrantAfter  int
}

// ResetOutcome summarizes one monthly reset sweep.
type ResetOutcome struct {
	ResetCount int
	Changes    []AccountReset
}

// LeaderboardEntry is one row of the leaderboard projection. EndorsementTotal
// counts endorsements on recognitions this user received.
type LeaderboardEntry struct {
	UserID           string
	TotalReceived    int
	RecognitionCount int
	EndorsementTotal int
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Every operation is atomic with respect to account state: either all of its
// account mutations commit, or none do.
type Ledger interface {
	EnsureAccount(ctx context.Context, userID string) error
	Account(ctx context.Context, userID string) (Account, error)
	Recognition(ctx context.Context, id string) (Recognition, error)
	Recognize(ctx context.Context, input RecognizeInput) (RecognitionResult, error)
	Endorse(ctx context.Context, recognitionID, endorserID string) (Endorsement, error)
	Redeem(ctx context.Context, userID string, credits int) (RedemptionResult, error)
	ResetMonth(ctx context.Context, now time.Time) (ResetOutcome, error)
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// sameMonth reports whether two instants fall in the same calendar month and year.
func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
