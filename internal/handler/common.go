package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Helpers to pull employee info from the JWT context (set by auth middleware)

func getEmployeeID(c *fiber.Ctx) string {
	id := c.Locals("employee_id")
	if id == nil {
		return "system" // Shouldn't happen on protected routes
	}
	return id.(string)
}

func getEmployeeUUID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(getEmployeeID(c))
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
