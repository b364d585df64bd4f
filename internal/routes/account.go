package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/boostly/boostly/internal/identity"
	"github.com/boostly/boostly/internal/ledger"
)

// RegisterAccountRoutes exposes the authenticated user's profile and balance
// counters.
func RegisterAccountRoutes(r fiber.Router, l ledger.Ledger, users identity.Repository) {
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := users.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		account, err := l.Account(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return c.JSON(fiber.Map{
			"user_id":            user.ID,
			"name":               user.Name,
			"email":              user.Email,
			"role":               user.Role,
			"grant_balance":      account.GrantBalance,
			"sent_this_month":    account.SentThisMonth,
			"redeemable_balance": account.RedeemableBalance,
			"total_received":     account.TotalReceived,
			"last_reset_date":    account.LastResetDate,
		})
	})
}
