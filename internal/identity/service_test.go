package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/boostly/boostly/internal/ledger"
)

func TestRegisterSeedsLedgerAccount(t *testing.T) {
	repo := NewMemoryRepository()
	led := ledger.NewInMemory(ledger.DefaultRules())
	svc := NewService(repo, led)
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Name: "Alice", Email: "Alice@Example.com", Password: "correcthorse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleMember {
		t.Fatalf("expected member role, got %s", user.Role)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}

	acc, err := led.Account(ctx, user.ID)
	if err != nil {
		t.Fatalf("ledger account not provisioned: %v", err)
	}
	if acc.GrantBalance != ledger.DefaultRules().BaseGrant {
		t.Fatalf("expected base grant %d, got %d", ledger.DefaultRules().BaseGrant, acc.GrantBalance)
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	svc := NewService(NewMemoryRepository(), ledger.NewInMemory(ledger.DefaultRules()))
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "not-an-email", Password: "correcthorse"}); err == nil {
		t.Fatalf("expected email validation error")
	}
	if _, err := svc.Register(ctx, Credentials{Email: "a@b.com", Password: "short"}); err == nil {
		t.Fatalf("expected password validation error")
	}
}

func TestAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, ledger.NewInMemory(ledger.DefaultRules()))
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Name: "Bob", Email: "bob@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Email: "bob@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.IsAdmin() {
		t.Fatalf("member must not be admin")
	}

	if _, err := svc.Authenticate(ctx, Credentials{Email: "bob@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Email: "nobody@example.com", Password: "whatever123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, ledger.NewInMemory(ledger.DefaultRules()))
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "dup@example.com", Password: "password123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Email: "dup@example.com", Password: "password123"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected user exists, got %v", err)
	}
}
