package middleware

import (
	"github.com/gofiber/fiber/v2"
)

func (m *Middleware) RequireOperator() fiber.Handler {
	log := m.log.Function("RequireOperator")

	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			log.Info("user not found in context")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !user.IsOperator() {
			log.Info("user is not an operator", "userID", user.ID)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Operator access required",
			})
		}

		return c.Next()
	}
}
