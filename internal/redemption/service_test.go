package redemption

import (
	"context"
	"errors"
	"testing"

	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/ledger"
)

func TestServiceRedeem(t *testing.T) {
	l := ledger.NewInMemory(ledger.DefaultRules())
	ledger.SeedAccount(l, ledger.Account{UserID: "user", RedeemableBalance: 20})
	recorder := audit.NewRecorder(audit.NewMemoryStore(), nil)
	svc := NewService(l, recorder)
	ctx := context.Background()

	res, err := svc.Redeem(ctx, RedeemInput{UserID: "user", Credits: 20})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.VoucherValue != 100 || res.RedeemableBalance != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	entries, err := recorder.Search(ctx, audit.Filter{Action: "redeem", ActorID: "user"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Details["voucher_value"] != 100 {
		t.Fatalf("voucher value missing from audit details: %+v", entries[0].Details)
	}
}

func TestServiceRedeemInsufficientBalance(t *testing.T) {
	l := ledger.NewInMemory(ledger.DefaultRules())
	ledger.SeedAccount(l, ledger.Account{UserID: "user", RedeemableBalance: 5})
	recorder := audit.NewRecorder(audit.NewMemoryStore(), nil)
	svc := NewService(l, recorder)
	ctx := context.Background()

	if _, err := svc.Redeem(ctx, RedeemInput{UserID: "user", Credits: 10}); !errors.Is(err, ledger.ErrInsufficientRedeemableBalance) {
		t.Fatalf("expected insufficient redeemable error, got %v", err)
	}

	acc, _ := l.Account(ctx, "user")
	if acc.RedeemableBalance != 5 {
		t.Fatalf("failed redeem mutated balance: %d", acc.RedeemableBalance)
	}

	entries, _ := recorder.Search(ctx, audit.Filter{})
	if len(entries) != 0 {
		t.Fatalf("audit entry written for failed redemption")
	}
}
