package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"shulepay_backend/internals/constants"
)

// storeClaimsToLocals lifts the claims the rest of the app relies on into
// c.Locals: user_id, role (validated against the closed enum), school_id.
func storeClaimsToLocals(c *fiber.Ctx, claims jwt.MapClaims) error {
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		// older tokens used "sub"
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
	}
	c.Locals("user_id", userID)

	roleStr, _ := claims["role"].(string)
	if _, ok := constants.ParseRole(roleStr); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid role claim")
	}
	c.Locals("role", roleStr)

	if schoolID, _ := claims["school_id"].(string); schoolID != "" {
		c.Locals("school_id", schoolID)
	}
	return nil
}
