package handler

import (
	"errors"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IssueHandler struct {
	issues service.IssueService
}

func NewIssueHandler(issues service.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

func (h *IssueHandler) CreateIssue(c *fiber.Ctx) error {
	beauticianID, err := getEmployeeUUID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid employee ID"})
	}

	var input service.ReportIssueInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	issue, err := h.issues.Report(beauticianID, input)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Issue reported", "data": issue})
}

func (h *IssueHandler) GetIssues(c *fiber.Ctx) error {
	status := model.IssueStatus(c.Query("status"))
	if status != "" && status != model.IssueOpen && status != model.IssueResolved {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid status filter"})
	}

	issues, err := h.issues.List(status)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(issues)
}

func (h *IssueHandler) ResolveIssue(c *fiber.Ctx) error {
	issueID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid issue ID"})
	}
	resolvedBy, err := getEmployeeUUID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid employee ID"})
	}

	issue, err := h.issues.Resolve(issueID, resolvedBy)
	if err != nil {
		status := 400
		switch {
		case errors.Is(err, service.ErrIssueNotFound):
			status = 404
		case errors.Is(err, service.ErrIssueAlreadyResolved):
			status = 409
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Issue resolved", "data": issue})
}
