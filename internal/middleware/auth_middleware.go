package middleware

import (
	"strings"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/services"
	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// AuthMiddleware validates the bearer token and stores the caller's session
func AuthMiddleware(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Get(fiber.HeaderAuthorization)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
		}
		return authenticate(c, auth, tokenString)
	}
}

// OptionalAuth attaches a session when a token is sent and lets anonymous
// requests through with an empty one. A token that is sent must be valid.
func OptionalAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Get(fiber.HeaderAuthorization)
		if tokenString == "" {
			c.Locals(sessionKey, models.Session{})
			return c.Next()
		}
		return authenticate(c, auth, tokenString)
	}
}

func authenticate(c *fiber.Ctx, auth *services.AuthService, header string) error {
	// Ensure it's a Bearer token
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" || tokenString == header {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token format"})
	}

	sess, err := auth.ParseToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	// Store user info in context for next handlers
	c.Locals(sessionKey, sess)
	c.Locals("user_id", sess.UserID)
	c.Locals("role", string(sess.Role))

	return c.Next()
}

// SessionFrom returns the session stored by AuthMiddleware or OptionalAuth,
// or an empty session for anonymous requests.
func SessionFrom(c *fiber.Ctx) models.Session {
	sess, _ := c.Locals(sessionKey).(models.Session)
	return sess
}
