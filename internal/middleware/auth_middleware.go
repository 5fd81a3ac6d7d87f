package middleware

import (
	"strings"

	"go-production-inventory/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
	LocalUserName = "user_name"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(tokenString string) (*model.User, error)
}

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		user, err := auth.Authenticate(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUserRole, user.RoleCode())
		c.Locals(LocalUserName, user.FullName)

		return c.Next()
	}
}

// RequireRole rejects requests from users ranked below minimum. Write operations check the
// role again themselves; this only short-circuits whole route groups.
func RequireRole(minimum string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalUserRole).(string)
		if !model.RoleAtLeast(role, minimum) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires " + minimum + " role or above",
			})
		}
		return c.Next()
	}
}
