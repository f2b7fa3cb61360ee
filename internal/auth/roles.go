package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireIdentity ensures the caller carries a user id.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok || identity.ID == "" {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
