package auth

import (
	"github.com/gofiber/fiber/v2"

	"shulepay_backend/internals/constants"
)

// Capability is any predicate over the closed role enum; see constants/roles.go.
type Capability func(constants.Role) bool

// RequireCapability guards a route group behind a capability check instead of
// an ad-hoc role list, so adding a role forces every check site to decide.
func RequireCapability(can Capability, forbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := c.Locals("role").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized: missing role information",
			})
		}
		role, ok := constants.ParseRole(raw)
		if !ok || !can(role) {
			if forbiddenMessage == "" {
				forbiddenMessage = "Forbidden: you are not authorized to access this resource"
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": forbiddenMessage,
			})
		}
		return c.Next()
	}
}
