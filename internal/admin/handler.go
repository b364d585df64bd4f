package admin

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/audit"
)

// Handler exposes privileged admin endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an admin handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ResetMonth triggers the monthly grant reset sweep.
func (h *Handler) ResetMonth(c *fiber.Ctx) error {
	actorID, _ := c.Locals("user_id").(string)

	outcome, err := h.service.ResetMonth(c.UserContext(), ResetInput{
		ActorID:       actorID,
		SourceAddress: audit.ClientAddress(c),
	})
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	changes := make([]fiber.Map, 0, len(outcome.Changes))
	for _, ch := range outcome.Changes {
		changes = append(changes, fiber.Map{
			"user_id":      ch.UserID,
			"grant_before": ch.GrantBefore,
			"grant_after":  ch.GrantAfter,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"reset_count": outcome.ResetCount,
		"changes":     changes,
	})
}

// AuditTrail returns audit entries matching the query filters, newest first.
func (h *Handler) AuditTrail(c *fiber.Ctx) error {
	filter := audit.Filter{
		ActorID:    c.Query("actor_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		Limit:      c.QueryInt("limit"),
	}

	entries, err := h.service.AuditTrail(c.UserContext(), filter)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, fiber.Map{
			"id":             e.ID,
			"actor_id":       e.ActorID,
			"action":         e.Action,
			"entity_type":    e.EntityType,
			"entity_id":      e.EntityID,
			"details":        e.Details,
			"source_address": e.SourceAddress,
			"created_at":     e.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}
