package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/identity"
)

// Handler exposes registration and login endpoints.
type Handler struct {
	ids      *identity.Service
	svc      *Service
	recorder *audit.Recorder
}

// NewHandler constructs an auth handler.
func NewHandler(ids *identity.Service, svc *Service, recorder *audit.Recorder) *Handler {
	return &Handler{ids: ids, svc: svc, recorder: recorder}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register onboards a new member and seeds their credit account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.ids.Register(c.UserContext(), identity.Credentials{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, identity.ErrUserExists) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if h.recorder != nil {
		h.recorder.Record(c.UserContext(), audit.Entry{
			ActorID:       user.ID,
			Action:        "register",
			EntityType:    "user",
			EntityID:      user.ID,
			Details:       map[string]any{"email": user.Email},
			SourceAddress: audit.ClientAddress(c),
		})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user_id": user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"role":    user.Role,
	})
}

// Login validates credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.ids.Authenticate(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	token, err := h.svc.Issue(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	if h.recorder != nil {
		h.recorder.Record(c.UserContext(), audit.Entry{
			ActorID:       user.ID,
			Action:        "login",
			EntityType:    "user",
			EntityID:      user.ID,
			SourceAddress: audit.ClientAddress(c),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":      user.ID,
		"role":         user.Role,
		"access_token": token.AccessToken,
		"expires_in":   token.ExpiresIn,
	})
}
