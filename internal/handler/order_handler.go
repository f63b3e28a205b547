package handler

import (
	"errors"
	"time"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

func (h *OrderHandler) GetMyOrders(c *fiber.Ctx) error {
	employeeID, err := getEmployeeUUID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid employee ID"})
	}

	orders, err := h.service.GetOrdersForEmployee(employeeID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(orders)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	order, err := h.service.GetOrder(orderID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Order not found"})
	}
	return c.JSON(order)
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var order model.Order
	if err := c.BodyParser(&order); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateOrder(&order, getEmployeeID(c)); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Order created", "data": order})
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	var req struct {
		Status model.OrderStatus `json:"status"`
		Reason string            `json:"reason,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.service.UpdateStatus(orderID, req.Status, req.Reason, getEmployeeID(c))
	if err != nil {
		status := 400
		if errors.Is(err, service.ErrOrderNotFound) {
			status = 404
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Order updated", "data": order})
}

func (h *OrderHandler) GetCancelledOrders(c *fiber.Ctx) error {
	category := c.Query("category")
	if category != "" && category != service.BucketCustomer && category != service.BucketBeautician {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid category, use customer or beautician"})
	}

	rows, err := h.service.GetCancelledOrders(category)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(rows)
}

func (h *OrderHandler) Reallocate(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	order, err := h.service.Reallocate(orderID, getEmployeeID(c))
	if err != nil {
		status := 400
		if errors.Is(err, service.ErrOrderNotFound) {
			status = 404
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Order reallocated", "data": order})
}

func (h *OrderHandler) GetOverviewStats(c *fiber.Ctx) error {
	stats, err := h.service.OverviewStats()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(stats)
}

// ExpireInactive runs the inactivity sweep on demand (also runs on a timer)
func (h *OrderHandler) ExpireInactive(c *fiber.Ctx) error {
	count, err := h.service.ExpireInactiveOrders(time.Now())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(fiber.Map{"expired": count})
}
