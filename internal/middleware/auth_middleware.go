package middleware

import (
	"strings"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"
	"go-dispatch-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the JWT token and sets employee info in context
func RequireAuth(employeeRepo repository.EmployeeRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		employee, err := employeeRepo.FindByID(claims.EmployeeID)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Employee not found"})
		}
		if !employee.IsActive {
			return c.Status(401).JSON(fiber.Map{"error": "Account is inactive"})
		}

		c.Locals("employee_id", claims.EmployeeID.String())
		c.Locals("employee_email", claims.Email)
		c.Locals("employee_name", claims.Name)
		c.Locals("employee_role", employee.Role)

		return c.Next()
	}
}

// RequireAdmin gates admin-only operations
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("employee_role").(string)
		if !ok || role != model.RoleAdmin {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden: requires admin role"})
		}
		return c.Next()
	}
}
