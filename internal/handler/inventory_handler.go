package handler

import (
	"errors"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	stock    service.StockService
	requests service.RequestService
}

func NewInventoryHandler(stock service.StockService, requests service.RequestService) *InventoryHandler {
	return &InventoryHandler{stock: stock, requests: requests}
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.stock.CreateProduct(&product, getEmployeeID(c)); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.stock.UpdateProduct(productID, &product, getEmployeeID(c))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.stock.GetProducts()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetStockSummary(c *fiber.Ctx) error {
	summary, err := h.stock.GetStockSummary()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(summary)
}

func (h *InventoryHandler) GetMissingProductLogs(c *fiber.Ctx) error {
	logs, err := h.stock.GetMissingProductLogs()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(logs)
}

func (h *InventoryHandler) CreateProductRequest(c *fiber.Ctx) error {
	beauticianID, err := getEmployeeUUID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid employee ID"})
	}

	var req struct {
		ProductID         uuid.UUID       `json:"product_id"`
		QuantityRequested decimal.Decimal `json:"quantity_requested"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	request, err := h.requests.CreateRequest(beauticianID, req.ProductID, req.QuantityRequested)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Request created", "data": request})
}

func (h *InventoryHandler) ApproveProductRequest(c *fiber.Ctx) error {
	requestID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request ID"})
	}
	approverID, err := getEmployeeUUID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid employee ID"})
	}

	var req struct {
		QuantityApproved decimal.Decimal `json:"quantity_approved"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	request, err := h.requests.Approve(requestID, approverID, req.QuantityApproved)
	if err != nil {
		status := 400
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			status = 404
		case errors.Is(err, service.ErrRequestAlreadyDecided):
			status = 409
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Request decided", "data": request})
}

func (h *InventoryHandler) GetProductRequests(c *fiber.Ctx) error {
	status := model.RequestStatus(c.Query("status"))
	requests, err := h.requests.GetRequests(status)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(requests)
}
