package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/boostly/boostly/internal/admin"
	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/auth"
	"github.com/boostly/boostly/internal/config"
	"github.com/boostly/boostly/internal/identity"
	"github.com/boostly/boostly/internal/leaderboard"
	"github.com/boostly/boostly/internal/ledger"
	"github.com/boostly/boostly/internal/middleware"
	"github.com/boostly/boostly/internal/notification"
	"github.com/boostly/boostly/internal/recognition"
	"github.com/boostly/boostly/internal/redemption"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.RequestLog(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Storage backends
	rules := d.Cfg.Rules()
	var ledgerBackend ledger.Ledger
	var auditStore audit.Store
	var identityRepo identity.Repository
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB, rules)
		auditStore = audit.NewPostgresStore(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory(rules)
		auditStore = audit.NewMemoryStore()
		identityRepo = identity.NewMemoryRepository()
	}
	recorder := audit.NewRecorder(auditStore, audit.SlogFailureSink(d.Logger))
	notifier := notification.NewLoggerNotifier(d.Logger)

	// Services and handlers
	identitySvc := identity.NewService(identityRepo, ledgerBackend)
	authSvc := auth.NewService(d.Cfg)
	authHandler := auth.NewHandler(identitySvc, authSvc, recorder)
	recognitionSvc := recognition.NewService(ledgerBackend, recorder, notifier)
	recognitionHandler := recognition.NewHandler(recognitionSvc)
	redemptionSvc := redemption.NewService(ledgerBackend, recorder)
	redemptionHandler := redemption.NewHandler(redemptionSvc)
	leaderboardSvc := leaderboard.NewService(ledgerBackend, d.Cache, d.Cfg.LeaderboardCacheTTL)
	leaderboardHandler := leaderboard.NewHandler(leaderboardSvc)
	adminSvc := admin.NewService(ledgerBackend, recorder)
	adminHandler := admin.NewHandler(adminSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)
	RegisterLeaderboardRoutes(api, leaderboardHandler)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	RegisterAccountRoutes(protected, ledgerBackend, identityRepo)
	RegisterRecognitionRoutes(protected, recognitionHandler)
	RegisterRedemptionRoutes(protected, redemptionHandler)

	// Privileged routes
	adminGroup := protected.Group("/admin", middleware.RequireRole(identity.RoleAdmin))
	RegisterAdminRoutes(adminGroup, adminHandler)

	return nil
}
