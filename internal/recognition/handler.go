package recognition

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/ledger"
)

// Handler exposes recognition HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a recognition handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type recognizeRequest struct {
	ReceiverID string `json:"receiver_id"`
	Credits    int    `json:"credits"`
	Note       string `json:"note"`
}

// Recognize grants credits from the authenticated sender to a receiver.
func (h *Handler) Recognize(c *fiber.Ctx) error {
	var req recognizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	senderID, _ := c.Locals("user_id").(string)

	res, err := h.service.Recognize(c.UserContext(), RecognizeInput{
		SenderID:      senderID,
		ReceiverID:    req.ReceiverID,
		Credits:       req.Credits,
		Note:          req.Note,
		SourceAddress: audit.ClientAddress(c),
	})
	if err != nil {
		return mapLedgerError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"recognition_id":  res.RecognitionID,
		"grant_balance":   res.GrantBalance,
		"sent_this_month": res.SentThisMonth,
		"completed_at":    res.CompletedAt,
	})
}

// Endorse attaches the authenticated user's endorsement to a recognition.
func (h *Handler) Endorse(c *fiber.Ctx) error {
	recognitionID := c.Params("recognitionId")
	endorserID, _ := c.Locals("user_id").(string)

	endorsement, err := h.service.Endorse(c.UserContext(), EndorseInput{
		RecognitionID: recognitionID,
		EndorserID:    endorserID,
		SourceAddress: audit.ClientAddress(c),
	})
	if err != nil {
		return mapLedgerError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"endorsement_id": endorsement.ID,
		"recognition_id": endorsement.RecognitionID,
		"created_at":     endorsement.CreatedAt,
	})
}

func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidCredits),
		errors.Is(err, ledger.ErrSelfRecognition),
		errors.Is(err, ledger.ErrInsufficientGrantBalance),
		errors.Is(err, ledger.ErrMonthlyLimitExceeded):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrDuplicateEndorsement):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrReceiverNotFound),
		errors.Is(err, ledger.ErrRecognitionNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
