package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/leaderboard"
)

// RegisterLeaderboardRoutes wires the public leaderboard endpoint.
func RegisterLeaderboardRoutes(r fiber.Router, h *leaderboard.Handler) {
	r.Get("/leaderboard", h.Top)
}
