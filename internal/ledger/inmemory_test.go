package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestInMemoryLedger_RecognizeMovesCredits(t *testing.T) {
	l := NewInMemory(DefaultRules())
	ctx := context.Background()

	SeedAccount(l, Account{UserID: "sender", GrantBalance: 100})
	SeedAccount(l, Account{UserID: "receiver", GrantBalance: 100})

	res, err := l.Recognize(ctx, RecognizeInput{SenderID: "sender", ReceiverID: "receiver", Credits: 30, Note: "great work"})
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if res.SenderGrantBalance != 70 || res.SenderSentThisMonth != 30 {
		t.Fatalf("unexpected sender counters: grant=%d sent=%d", res.SenderGrantBalance, res.SenderSentThisMonth)
	}
	if res.ReceiverRedeemableBalance != 30 {
		t.Fatalf("expected receiver redeemable 30, got %d", res.ReceiverRedeemableBalance)
	}

	receiver, err := l.Account(ctx, "receiver")
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if receiver.RedeemableBalance != 30 || receiver.TotalReceived != 30 {
		t.Fatalf("receiver counters not credited: %+v", receiver)
	}

	rec, err := l.Recognition(ctx, res.RecognitionID)
	if err != nil {
		t.Fatalf("recognition lookup: %v", err)
	}
	if rec.SenderID != "sender" || rec.Credits != 30 || rec.Note != "great work" {
		t.Fatalf("unexpected recognition event: %+v", rec)
	}
}

func TestInMemoryLedger_RecognizeRejections(t *testing.T) {
	l := NewInMemory(DefaultRules())
	ctx := context.Background()

	SeedAccount(l, Account{UserID: "sender", GrantBalance: 20, SentThisMonth: 95})
	SeedAccount(l, Account{UserID: "receiver"})

	cases := []struct {
		name  string
		input RecognizeInput
		want  error
	}{
		{"self recognition", RecognizeInput{SenderID: "sender", ReceiverID: "sender", Credits: 5}, ErrSelfRecognition},
		{"zero credits", RecognizeInput{SenderID: "sender", ReceiverID: "receiver", Credits: 0}, ErrInvalidCredits},
		{"negative credits", RecognizeInput{SenderID: "sender", ReceiverID: "receiver", Credits: -3}, ErrInvalidCredits},
		{"insufficient grant", RecognizeInput{SenderID: "sender", ReceiverID: "receiver", Credits: 25}, ErrInsufficientGrantBalance},
		{"monthly limit", RecognizeInput{SenderID: "sender", ReceiverID: "receiver", Credits: 10}, ErrMonthlyLimitExceeded},
		{"missing receiver", RecognizeInput{SenderID: "sender", ReceiverID: "ghost", Credits: 5}, ErrReceiverNotFound},
		{"missing sender", RecognizeInput{SenderID: "ghost", ReceiverID: "receiver", Credits: 5}, ErrAccountNotFound},
	}
	for _, tc := range cases {
		if _, err := l.Recognize(ctx, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// No failed attempt may leave partial state behind.
	sender, _ := l.Account(ctx, "sender")
	if sender.GrantBalance != 20 || sender.SentThisMonth != 95 {
		t.Fatalf("sender mutated by failed recognize: %+v", sender)
	}
	receiver, _ := l.Account(ctx, "receiver")
	if receiver.RedeemableBalance != 0 || receiver.TotalReceived != 0 {
		t.Fatalf("receiver mutated by failed recognize: %+v", receiver)
	}
}

func TestInMemoryLedger_EndorseOncePerEndorser(t *testing.T) {
	l := NewInMemory(DefaultRules())
	ctx := context.Background()

	SeedAccount(l, Account{UserID: "sender", GrantBalance: 100})
	SeedAccount(l, Account{UserID: "receiver"})
	res, err := l.Recognize(ctx, RecognizeInput{SenderID: "sender", ReceiverID: "receiver", Credits: 10})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}

	if _, err := l.Endorse(ctx, res.RecognitionID, "fan"); err != nil {
		t.Fatalf("first endorsement failed: %v", err)
	}
	if _, err := l.Endorse(ctx, res.RecognitionID, "fan"); !errors.Is(err, ErrDuplicateEndorsement) {
		t.Fatalf("expected duplicate endorsement error, got %v", err)
	}
	// A different endorser is still allowed.
	if _, err := l.Endorse(ctx, res.RecognitionID, "other-fan"); err != nil {
		t.Fatalf("second endorser failed: %v", err)
	}
	if _, err := l.Endorse(ctx, "missing", "fan"); !errors.Is(err, ErrRecognitionNotFound) {
		t.Fatalf("expected recognition not found, got %v", err)
	}

	// Endorsements never move balances.
	receiver, _ := l.Account(ctx, "receiver")
	if receiver.RedeemableBalance != 10 || receiver.TotalReceived != 10 {
		t.Fatalf("endorsement mutated balances: %+v", receiver)
	}
}

func TestInMemoryLedger_RedeemVoucherValue(t *testing.T) {
	l := NewInMemory(DefaultRules())
	ctx := context.Background()

	SeedAccount(l, Account{UserID: "user", RedeemableBalance: 20})

	res, err := l.Redeem(ctx, "user", 20)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if res.VoucherValue != 100 {
		t.Fatalf("expected voucher value 100, got %d", res.VoucherValue)
	}
	if res.RedeemableBalance != 0 {
		t.Fatalf("expected redeemable 0, got %d", res.RedeemableBalance)
	}

	if _, err := l.Redeem(ctx, "user", 1); !errors.Is(err, ErrInsufficientRedeemableBalance) {
		t.Fatalf("expected insufficient redeemable error, got %v", err)
	}
	if _, err := l.Redeem(ctx, "user", 0); !errors.Is(err, ErrInvalidCredits) {
		t.Fatalf("expected invalid credits error, got %v", err)
	}
}

func TestInMemoryLedger_ResetMonthCarry(t *testing.T) {
	l := NewInMemory(DefaultRules())
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	SeedAccount(l, Account{UserID: "hoarder", GrantBalance: 120, SentThisMonth: 40})
	SeedAccount(l, Account{UserID: "spender", GrantBalance: 0, SentThisMonth: 100})
	SeedAccount(l, Account{UserID: "modest", GrantBalance: 30, SentThisMonth: 70})

	outcome, err := l.ResetMonth(ctx, now)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if outcome.ResetCount != 3 || len(outcome.Changes) != 3 {
		t.Fatalf("expected 3 resets, got %d (%d changes)", outcome.ResetCount, len(outcome.Changes))
	}

	expected := map[string]int{"hoarder": 150, "spender": 100, "modest": 130}
	for id, grant := range expected {
		acc, _ := l.Account(ctx, id)
		if acc.GrantBalance != grant {
			t.Fatalf("%s: expected grant %d, got %d", id, grant, acc.GrantBalance)
		}
		if acc.SentThisMonth != 0 {
			t.Fatalf("%s: sent_this_month not cleared", id)
		}
		if acc.LastResetDate == nil || !acc.LastResetDate.Equal(now) {
			t.Fatalf("%s: last reset date not stamped", id)
		}
	}

	// Sweeping again in the same month must change nothing.
	outcome, err = l.ResetMonth(ctx, now.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("second reset failed: %v", err)
	}
	if outcome.ResetCount != 0 {
		t.Fatalf("second sweep reset %d accounts", outcome.ResetCount)
	}
	acc, _ := l.Account(ctx, "hoarder")
	if acc.GrantBalance != 150 {
		t.Fatalf("second sweep double-credited: %d", acc.GrantBalance)
	}

	// A new month makes accounts eligible again.
	outcome, err = l.ResetMonth(ctx, now.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("next month reset failed: %v", err)
	}
	if outcome.ResetCount != 3 {
		t.Fatalf("expected 3 resets next month, got %d", outcome.ResetCount)
	}
}

func TestInMemoryLedger_ConcurrentRecognizeSingleWinner(t *testing.T) {
	l := NewInMemory(DefaultRules())
	ctx := context.Background()

	SeedAccount(l, Account{UserID: "sender", GrantBalance: 10})
	SeedAccount(l, Account{UserID: "a"})
	SeedAccount(l, Account{UserID: "b"})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, receiver := range []string{"a", "b"} {
		wg.Add(1)
		go func(i int, receiver string) {
			defer wg.Done()
			_, errs[i] = l.Recognize(ctx, RecognizeInput{SenderID: "sender", ReceiverID: receiver, Credits: 10})
		}(i, receiver)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientGrantBalance):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d rejections", succeeded, rejected)
	}

	sender, _ := l.Account(ctx, "sender")
	if sender.GrantBalance != 0 {
		t.Fatalf("grant balance driven to %d", sender.GrantBalance)
	}
}

func TestInMemoryLedger_TopOrdering(t *testing.T) {
	l := NewInMemory(DefaultRules())
	ctx := context.Background()

	SeedAccount(l, Account{UserID: "alice", GrantBalance: 100})
	SeedAccount(l, Account{UserID: "bob"})
	SeedAccount(l, Account{UserID: "carol"})

	first, err := l.Recognize(ctx, RecognizeInput{SenderID: "alice", ReceiverID: "bob", Credits: 40})
	if err != nil {
		t.Fatalf("recognize bob: %v", err)
	}
	if _, err := l.Recognize(ctx, RecognizeInput{SenderID: "alice", ReceiverID: "carol", Credits: 40}); err != nil {
		t.Fatalf("recognize carol: %v", err)
	}
	if _, err := l.Endorse(ctx, first.RecognitionID, "carol"); err != nil {
		t.Fatalf("endorse: %v", err)
	}

	entries, err := l.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// bob and carol tie on 40; bob sorts first by id.
	if entries[0].UserID != "bob" || entries[1].UserID != "carol" {
		t.Fatalf("unexpected ordering: %s, %s", entries[0].UserID, entries[1].UserID)
	}
	if entries[0].RecognitionCount != 1 || entries[0].EndorsementTotal != 1 {
		t.Fatalf("unexpected derived counts for bob: %+v", entries[0])
	}
	if entries[1].EndorsementTotal != 0 {
		t.Fatalf("carol should have no endorsements: %+v", entries[1])
	}
}
