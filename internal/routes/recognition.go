package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/recognition"
)

// RegisterRecognitionRoutes wires recognition and endorsement endpoints.
func RegisterRecognitionRoutes(r fiber.Router, h *recognition.Handler) {
	r.Post("/recognitions", h.Recognize)
	r.Post("/recognitions/:recognitionId/endorse", h.Endorse)
}
