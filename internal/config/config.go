package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/boostly/boostly/internal/ledger"
)

const (
	defaultAppName       = "Boostly"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultIdemTTL       = 24 * time.Hour
	defaultTokenTTL      = 24 * time.Hour
	defaultBoardTTL      = 30 * time.Second
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName             string
	Env                 string
	Port                string
	LogLevel            string
	DatabaseURL         string
	RedisURL            string
	JWTSecret           string
	AccessTokenTTL      time.Duration
	ShutdownPeriod      time.Duration
	IdempotencyTTL      time.Duration
	LeaderboardCacheTTL time.Duration

	// Ledger rule overrides; zero means the platform default.
	MonthlySendCap int
	CarryCap       int
	BaseGrant      int
	VoucherRate    int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:             getEnv("APP_NAME", defaultAppName),
		Env:                 strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:                getEnv("PORT", defaultPort),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AccessTokenTTL:      defaultTokenTTL,
		ShutdownPeriod:      defaultShutdownDelay,
		IdempotencyTTL:      defaultIdemTTL,
		LeaderboardCacheTTL: defaultBoardTTL,
	}

	durations := []struct {
		envVar string
		target *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", &cfg.AccessTokenTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"LEADERBOARD_CACHE_TTL", &cfg.LeaderboardCacheTTL},
	}
	for _, d := range durations {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.target = parsed
		}
	}

	ints := []struct {
		envVar string
		target *int
	}{
		{"MONTHLY_SEND_CAP", &cfg.MonthlySendCap},
		{"CARRY_CAP", &cfg.CarryCap},
		{"BASE_GRANT", &cfg.BaseGrant},
		{"VOUCHER_RATE", &cfg.VoucherRate},
	}
	for _, i := range ints {
		if v := os.Getenv(i.envVar); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", i.envVar, err)
			}
			*i.target = parsed
		}
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("JWT_SECRET must be set")
		}
		cfg.JWTSecret = "dev-only-secret"
	}
	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
	}

	return cfg, nil
}

// Rules materializes the ledger rule set, falling back to platform defaults
// for any unset knob.
func (c Config) Rules() ledger.Rules {
	rules := ledger.DefaultRules()
	if c.MonthlySendCap > 0 {
		rules.MonthlySendCap = c.MonthlySendCap
	}
	if c.CarryCap > 0 {
		rules.CarryCap = c.CarryCap
	}
	if c.BaseGrant > 0 {
		rules.BaseGrant = c.BaseGrant
	}
	if c.VoucherRate > 0 {
		rules.VoucherRate = c.VoucherRate
	}
	return rules
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch c.Env {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
