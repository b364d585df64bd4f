package leaderboard

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the leaderboard endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a leaderboard handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type entryResponse struct {
	UserID           string `json:"user_id"`
	TotalReceived    int    `json:"total_received"`
	RecognitionCount int    `json:"recognition_count"`
	EndorsementTotal int    `json:"endorsement_total"`
}

// Top returns the leaderboard ordered by lifetime credits received.
func (h *Handler) Top(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLimit)

	entries, err := h.service.Top(c.UserContext(), limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			UserID:           e.UserID,
			TotalReceived:    e.TotalReceived,
			RecognitionCount: e.RecognitionCount,
			EndorsementTotal: e.EndorsementTotal,
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}
