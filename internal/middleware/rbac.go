package middleware

import (
	"go-confops/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	RoleAdmin        = "admin"
	RoleSyncOperator = "sync_operator"
)

// RequireRole lets the request through when the caller holds any of roles.
// Must run after AuthMiddleware.
func RequireRole(skipAuth bool, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !claims.HasRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Insufficient permissions",
			})
		}

		return c.Next()
	}
}
