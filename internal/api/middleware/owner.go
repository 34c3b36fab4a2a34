package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// HeaderUserID carries the authenticated owner, set by the upstream auth layer.
const HeaderUserID = "X-User-Id"

type localsKey int

const ownerKey localsKey = iota

// Owner resolves the caller's owner id. When the header is absent the
// fallback is used; an empty fallback makes the header mandatory.
func Owner(fallback string) fiber.Handler {
	return func(c fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderUserID))
		if id == "" {
			id = fallback
		}
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals(ownerKey, id)
		return c.Next()
	}
}

// OwnerID returns the id stored by Owner.
func OwnerID(c fiber.Ctx) string {
	id, _ := c.Locals(ownerKey).(string)
	return id
}
