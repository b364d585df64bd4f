package audit

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientAddress extracts the originating client address for SourceAddress
// fields, preferring proxy headers over the socket peer.
func ClientAddress(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
