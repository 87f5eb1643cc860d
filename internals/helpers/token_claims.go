// file: internals/helpers/token_claims.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shulepay_backend/internals/constants"
)

// Read user_id from c.Locals("user_id").
// 401 when missing, 400 when the claim is malformed.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return localsUUID(c, "user_id", "User is not logged in")
}

// Read the active school tenant from c.Locals("school_id").
func GetSchoolIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return localsUUID(c, "school_id", "No active school in token")
}

// Read the caller's role from c.Locals("role"); only the closed enum passes.
func GetRoleFromToken(c *fiber.Ctx) (constants.Role, error) {
	v := c.Locals("role")
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Missing role claim")
	}
	role, ok := constants.ParseRole(s)
	if !ok {
		return "", fiber.NewError(fiber.StatusForbidden, "Unknown role: "+s)
	}
	return role, nil
}

func localsUUID(c *fiber.Ctx, key, missingMsg string) (uuid.UUID, error) {
	v := c.Locals(key)
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, missingMsg)
	}

	switch t := v.(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, missingMsg)
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, missingMsg)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key+" claim")
		}
		return id, nil
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key+" claim")
	}
}
