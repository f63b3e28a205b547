package handler

import (
	"time"

	"go-dispatch-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TrackingHandler struct {
	service service.TrackingService
}

func NewTrackingHandler(s service.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: s}
}

// UpdateLocation receives one classified location report from a field client
func (h *TrackingHandler) UpdateLocation(c *fiber.Ctx) error {
	beauticianID, err := getEmployeeUUID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid employee ID"})
	}

	var req service.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.Ingest(beauticianID, req); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to record location"})
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *TrackingHandler) GetLatest(c *fiber.Ctx) error {
	beauticianID, err := parseUUID(c.Params("beauticianId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid beautician ID"})
	}

	point, err := h.service.Latest(beauticianID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(point) // null when no point exists yet
}

func (h *TrackingHandler) GetHistory(c *fiber.Ctx) error {
	beauticianID, err := parseUUID(c.Params("beauticianId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid beautician ID"})
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid since timestamp, use RFC3339"})
		}
		since = &parsed
	}

	points, err := h.service.History(beauticianID, since)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(points)
}

func (h *TrackingHandler) GetOrderTrail(c *fiber.Ctx) error {
	orderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	points, err := h.service.OrderTrail(orderID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(points)
}

func (h *TrackingHandler) GetBoard(c *fiber.Ctx) error {
	rows, err := h.service.Board()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(rows)
}
