package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/callcard/internal/services"
	"github.com/localnerve/callcard/internal/types"
)

// UserKey is the fiber Locals key holding the *services.SessionUser.
const UserKey = "user"

// AuthAdmin validates that the request has admin role authorization
func AuthAdmin(v services.SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, v, []string{"admin"}, "callcard.authorization.admin")
	}
}

// AuthUser validates that the request has user role authorization
func AuthUser(v services.SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, v, []string{"user"}, "callcard.authorization.user")
	}
}

func authorize(c *fiber.Ctx, v services.SessionValidator, roles []string, errorType string) error {
	session := c.Cookies("cookie_session")
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	user, err := v.ValidateSession(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	c.Locals(UserKey, user)
	return c.Next()
}
