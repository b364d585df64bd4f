package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/boostly/boostly/internal/ledger"
)

// ErrInvalidCredentials covers both unknown email and wrong password, so a
// caller cannot probe which one it was.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service manages identity lifecycle. Registering a user also provisions
// their ledger account so they start with the base grant.
type Service struct {
	repo   Repository
	ledger ledger.Ledger
}

// NewService creates a new identity service.
func NewService(repo Repository, l ledger.Ledger) *Service {
	return &Service{repo: repo, ledger: l}
}

// Register creates a member user with a hashed password and a seeded ledger
// account.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, errors.New("valid email required")
	}
	if len(creds.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(creds.Name),
		Email:        email,
		Role:         RoleMember,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	if err := s.ledger.EnsureAccount(ctx, user.ID); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies email and password.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}
