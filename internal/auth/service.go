package auth

import (
	"time"

	"github.com/boostly/boostly/internal/config"
	"github.com/boostly/boostly/internal/identity"
)

// Service issues access tokens for authenticated users.
type Service struct {
	cfg config.Config
}

// NewService builds an auth service.
func NewService(cfg config.Config) *Service {
	return &Service{cfg: cfg}
}

// Token is an issued access token with its lifetime in seconds.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue signs an access token carrying the user's identity and role. The
// role claim lets middleware gate privileged routes without a second lookup.
func (s *Service) Issue(user identity.User) (Token, error) {
	now := time.Now()
	claims := map[string]any{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.AccessTokenTTL).Unix(),
	}
	signed, err := SignHS256(claims, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}
