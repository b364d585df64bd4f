package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists accounts and recognition events in PostgreSQL.
// Account rows are locked FOR UPDATE inside each operation's transaction so
// concurrent operations against the same account serialize; two-account
// operations always lock in ascending user id order to avoid deadlocks.
type PostgresLedger struct {
	db    *pgxpool.Pool
	rules Rules
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool, rules Rules) *PostgresLedger {
	return &PostgresLedger{db: db, rules: rules}
}

// EnsureAccount guarantees an account row exists for the user, seeded with the
// base grant.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, userID string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO accounts (user_id, grant_balance, sent_this_month, redeemable_balance, total_received)
		VALUES ($1, $2, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING`, userID, l.rules.BaseGrant)
	return err
}

// Account returns the balance counters for the specified user.
func (l *PostgresLedger) Account(ctx context.Context, userID string) (Account, error) {
	const query = `
		SELECT user_id, grant_balance, sent_this_month, redeemable_balance, total_received, last_reset_date
		FROM accounts WHERE user_id = $1`
	var acc Account
	if err := l.db.QueryRow(ctx, query, userID).Scan(&acc.UserID, &acc.GrantBalance,
		&acc.SentThisMonth, &acc.RedeemableBalance, &acc.TotalReceived, &acc.LastResetDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

// Recognition fetches a single recognition event by identifier.
func (l *PostgresLedger) Recognition(ctx context.Context, id string) (Recognition, error) {
	const query = `
		SELECT id, sender_id, receiver_id, credits, COALESCE(note, ''), created_at
		FROM recognitions WHERE id = $1`
	var rec Recognition
	if err := l.db.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.SenderID, &rec.ReceiverID,
		&rec.Credits, &rec.Note, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Recognition{}, ErrRecognitionNotFound
		}
		return Recognition{}, err
	}
	return rec, nil
}

// Recognize moves credits from sender to receiver and records the recognition
// event, all in one transaction.
func (l *PostgresLedger) Recognize(ctx context.Context, input RecognizeInput) (RecognitionResult, error) {
	if input.Credits <= 0 {
		return RecognitionResult{}, ErrInvalidCredits
	}
	if input.SenderID == input.ReceiverID {
		return RecognitionResult{}, ErrSelfRecognition
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return RecognitionResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// Lock order by user id keeps concurrent sender/receiver pairs deadlock free.
	first, second := input.SenderID, input.ReceiverID
	if second < first {
		first, second = second, first
	}
	locked := make(map[string]Account, 2)
	for _, id := range []string{first, second} {
		acc, err := lockAccount(ctx, tx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				if id == input.ReceiverID {
					return RecognitionResult{}, ErrReceiverNotFound
				}
				return RecognitionResult{}, ErrAccountNotFound
			}
			return RecognitionResult{}, err
		}
		locked[id] = acc
	}

	sender := locked[input.SenderID]
	if sender.GrantBalance < input.Credits {
		return RecognitionResult{}, ErrInsufficientGrantBalance
	}
	if sender.SentThisMonth+input.Credits > l.rules.MonthlySendCap {
		return RecognitionResult{}, ErrMonthlyLimitExceeded
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts
		SET grant_balance = grant_balance - $1, sent_this_month = sent_this_month + $1
		WHERE user_id = $2`, input.Credits, input.SenderID); err != nil {
		return RecognitionResult{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts
		SET redeemable_balance = redeemable_balance + $1, total_received = total_received + $1
		WHERE user_id = $2`, input.Credits, input.ReceiverID); err != nil {
		return RecognitionResult{}, err
	}

	recognitionID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO recognitions (id, sender_id, receiver_id, credits, note, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		recognitionID, input.SenderID, input.ReceiverID, input.Credits, input.Note, time.Now().UTC()); err != nil {
		return RecognitionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return RecognitionResult{}, err
	}

	receiver := locked[input.ReceiverID]
	return RecognitionResult{
		RecognitionID:             recognitionID.String(),
		SenderGrantBalance:        sender.GrantBalance - input.Credits,
		SenderSentThisMonth:       sender.SentThisMonth + input.Credits,
		ReceiverRedeemableBalance: receiver.RedeemableBalance + input.Credits,
	}, nil
}

// Endorse attaches an endorsement to an existing recognition. The unique
// constraint on (recognition_id, endorser_id) enforces at-most-once semantics
// even under concurrent calls.
func (l *PostgresLedger) Endorse(ctx context.Context, recognitionID, endorserID string) (Endorsement, error) {
	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM recognitions WHERE id = $1)`, recognitionID).Scan(&exists); err != nil {
		return Endorsement{}, err
	}
	if !exists {
		return Endorsement{}, ErrRecognitionNotFound
	}

	endorsement := Endorsement{
		ID:            uuid.New().String(),
		RecognitionID: recognitionID,
		EndorserID:    endorserID,
		CreatedAt:     time.Now().UTC(),
	}
	tag, err := l.db.Exec(ctx, `INSERT INTO endorsements (id, recognition_id, endorser_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (recognition_id, endorser_id) DO NOTHING`,
		endorsement.ID, endorsement.RecognitionID, endorsement.EndorserID, endorsement.CreatedAt)
	if err != nil {
		return Endorsement{}, err
	}
	if tag.RowsAffected() == 0 {
		return Endorsement{}, ErrDuplicateEndorsement
	}
	return endorsement, nil
}

// Redeem converts redeemable credits into a voucher, recording the redemption
// event in the same transaction as the balance decrement.
func (l *PostgresLedger) Redeem(ctx context.Context, userID string, credits int) (RedemptionResult, error) {
	if credits <= 0 {
		return RedemptionResult{}, ErrInvalidCredits
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return RedemptionResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acc, err := lockAccount(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RedemptionResult{}, ErrAccountNotFound
		}
		return RedemptionResult{}, err
	}
	if acc.RedeemableBalance < credits {
		return RedemptionResult{}, ErrInsufficientRedeemableBalance
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET redeemable_balance = redeemable_balance - $1
		WHERE user_id = $2`, credits, userID); err != nil {
		return RedemptionResult{}, err
	}

	voucherValue := credits * l.rules.VoucherRate
	redemptionID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO redemptions (id, user_id, credits, voucher_value, created_at)
		VALUES ($1, $2, $3, $4, $5)`, redemptionID, userID, credits, voucherValue, time.Now().UTC()); err != nil {
		return RedemptionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return RedemptionResult{}, err
	}

	return RedemptionResult{
		RedemptionID:      redemptionID.String(),
		VoucherValue:      voucherValue,
		RedeemableBalance: acc.RedeemableBalance - credits,
	}, nil
}

// ResetMonth restores send capacity for every account not yet reset in the
// current calendar month. Each account is reset in its own transaction so a
// partial sweep can safely be retried.
func (l *PostgresLedger) ResetMonth(ctx context.Context, now time.Time) (ResetOutcome, error) {
	rows, err := l.db.Query(ctx, `SELECT user_id FROM accounts
		WHERE last_reset_date IS NULL
		   OR date_trunc('month', last_reset_date) <> date_trunc('month', $1::date)
		ORDER BY user_id`, now)
	if err != nil {
		return ResetOutcome{}, err
	}
	var candidates []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return ResetOutcome{}, err
		}
		candidates = append(candidates, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ResetOutcome{}, err
	}

	outcome := ResetOutcome{}
	for _, id := range candidates {
		change, reset, err := l.resetAccount(ctx, id, now)
		if err != nil {
			return outcome, fmt.Errorf("reset account %s: %w", id, err)
		}
		if reset {
			outcome.ResetCount++
			outcome.Changes = append(outcome.Changes, change)
		}
	}
	return outcome, nil
}

func (l *PostgresLedger) resetAccount(ctx context.Context, userID string, now time.Time) (AccountReset, bool, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return AccountReset{}, false, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acc, err := lockAccount(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountReset{}, false, nil
		}
		return AccountReset{}, false, err
	}
	// Re-check under the row lock: a concurrent sweep may have reset it already.
	if acc.LastResetDate != nil && sameMonth(*acc.LastResetDate, now) {
		return AccountReset{}, false, nil
	}

	carry := acc.GrantBalance
	if carry < 0 {
		carry = 0
	}
	if carry > l.rules.CarryCap {
		carry = l.rules.CarryCap
	}
	newGrant := l.rules.BaseGrant + carry

	if _, err := tx.Exec(ctx, `UPDATE accounts
		SET grant_balance = $1, sent_this_month = 0, last_reset_date = $2
		WHERE user_id = $3`, newGrant, now, userID); err != nil {
		return AccountReset{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return AccountReset{}, false, err
	}
	return AccountReset{UserID: userID, GrantBefore: acc.GrantBalance, GrantAfter: newGrant}, true, nil
}

// Top returns the leaderboard projection ordered by lifetime credits received,
// ties broken by user id for stable pagination.
func (l *PostgresLedger) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	const query = `
		SELECT a.user_id, a.total_received,
			   (SELECT COUNT(*) FROM recognitions r WHERE r.receiver_id = a.user_id),
			   (SELECT COUNT(*) FROM endorsements e
				  INNER JOIN recognitions r ON r.id = e.recognition_id
				WHERE r.receiver_id = a.user_id)
		FROM accounts a
		ORDER BY a.total_received DESC, a.user_id ASC
		LIMIT $1`
	rows, err := l.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TotalReceived, &e.RecognitionCount, &e.EndorsementTotal); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func lockAccount(ctx context.Context, tx pgx.Tx, userID string) (Account, error) {
	const query = `
		SELECT user_id, grant_balance, sent_this_month, redeemable_balance, total_received, last_reset_date
		FROM accounts WHERE user_id = $1 FOR UPDATE`
	var acc Account
	if err := tx.QueryRow(ctx, query, userID).Scan(&acc.UserID, &acc.GrantBalance,
		&acc.SentThisMonth, &acc.RedeemableBalance, &acc.TotalReceived, &acc.LastResetDate); err != nil {
		return Account{}, err
	}
	return acc, nil
}
