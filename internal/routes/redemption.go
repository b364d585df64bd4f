package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/redemption"
)

// RegisterRedemptionRoutes wires the voucher redemption endpoint.
func RegisterRedemptionRoutes(r fiber.Router, h *redemption.Handler) {
	r.Post("/redemptions", h.Redeem)
}
