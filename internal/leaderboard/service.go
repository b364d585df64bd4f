package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boostly/boostly/internal/ledger"
)

const (
	defaultLimit = 10
	maxLimit     = 100

	cachePrefix = "leaderboard:v1:top:"
)

// Service serves the leaderboard projection with a Redis cache in front of
// the ledger scan. The projection is non-authoritative, so staleness up to
// the cache TTL is acceptable and cache errors fail open to the ledger.
type Service struct {
	ledger ledger.Ledger
	cache  *redis.Client
	ttl    time.Duration
}

// NewService constructs a leaderboard service. cache may be nil, in which
// case every read hits the ledger.
func NewService(l ledger.Ledger, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{ledger: l, cache: cache, ttl: ttl}
}

// Top returns up to limit accounts ordered by lifetime credits received.
func (s *Service) Top(ctx context.Context, limit int) ([]ledger.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	cacheKey := fmt.Sprintf("%s%d", cachePrefix, limit)
	if s.cache != nil {
		if payload, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var entries []ledger.LeaderboardEntry
			if err := json.Unmarshal([]byte(payload), &entries); err == nil {
				return entries, nil
			}
		}
	}

	entries, err := s.ledger.Top(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if payload, err := json.Marshal(entries); err == nil {
			s.cache.Set(ctx, cacheKey, payload, s.ttl) // best effort
		}
	}

	return entries, nil
}
