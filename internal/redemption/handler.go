package redemption

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/ledger"
)

// Handler exposes redemption HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a redemption handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type redeemRequest struct {
	Credits int `json:"credits"`
}

// Redeem converts the authenticated user's credits into a voucher.
func (h *Handler) Redeem(c *fiber.Ctx) error {
	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)

	res, err := h.service.Redeem(c.UserContext(), RedeemInput{
		UserID:        userID,
		Credits:       req.Credits,
		SourceAddress: audit.ClientAddress(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidCredits),
			errors.Is(err, ledger.ErrInsufficientRedeemableBalance):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrAccountNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"redemption_id":      res.RedemptionID,
		"voucher_value":      res.VoucherValue,
		"redeemable_balance": res.RedeemableBalance,
		"completed_at":       res.CompletedAt,
	})
}
