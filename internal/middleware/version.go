package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// VersionKey is the fiber Locals key holding the requested API version.
const VersionKey = "apiVersion"

// VersionMiddleware parses the X-Api-Version header, stores it in context
// and echoes it on the response.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", "1.0.0")

		// Support version aliases
		switch version {
		case "1", "1.0":
			version = "1.0.0"
		case "2", "2.0":
			version = "2.0.0"
		}

		c.Locals(VersionKey, version)
		c.Set("X-Api-Version", version)

		return c.Next()
	}
}
