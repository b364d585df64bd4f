package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/auth"
)

// RegisterAuthRoutes wires registration and login endpoints. Login carries a
// rate limiter to slow credential stuffing.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", rateLimiter, h.Login)
}
