package services

import (
	"errors"

	"earn-service/models"

	"github.com/gofiber/fiber/v2"
)

// Caller is the identity the gateway attached to the request.
type Caller struct {
	UserID string
	Roles  []string
}

// CallerFromCtx reads the locals set by middleware.UserContextMiddleware.
func CallerFromCtx(c *fiber.Ctx) Caller {
	userID, _ := c.Locals("user_id").(string)
	roles, _ := c.Locals("user_roles").([]string)
	return Caller{UserID: userID, Roles: roles}
}

func (c Caller) HasRole(role models.UserRole) bool {
	for _, r := range c.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}

// errorStatus maps service errors to HTTP status codes. Anything unknown is a 400.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, ErrListingNotFound), errors.Is(err, ErrSubmissionNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusBadRequest
}

// unauthenticated answers requests that reached a secured handler without a user.
func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
}
