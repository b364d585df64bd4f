package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/admin"
)

// RegisterAdminRoutes wires privileged endpoints; callers must already have
// passed the admin role check.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler) {
	r.Post("/reset-month", h.ResetMonth)
	r.Get("/audit-log", h.AuditTrail)
}
