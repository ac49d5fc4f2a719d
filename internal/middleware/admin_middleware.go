package middleware

import (
	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/gofiber/fiber/v2"
)

// RequireRoles lets through only callers whose role is in roles. It must run
// after AuthMiddleware.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if sess.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
		}
		if !sess.Role.In(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
		}
		return c.Next()
	}
}

// AdminMiddleware ensures that only superadmins can access admin routes
func AdminMiddleware() fiber.Handler {
	return RequireRoles(models.AdminOnly...)
}
