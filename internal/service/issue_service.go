package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"
	"go-dispatch-ws/internal/ws"
	"go-dispatch-ws/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrIssueNotFound        = errors.New("issue not found")
	ErrIssueAlreadyResolved = errors.New("issue already resolved")
)

// ReportIssueInput is one field-reported problem
type ReportIssueInput struct {
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	IssueType string     `json:"issue_type" validate:"required"`
	Notes     string     `json:"notes,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
}

// IssueService drives the field issue workflow: workers report, admins
// resolve. Resolution happens exactly once behind an optimistic status=open
// precondition, matching the product request lifecycle.
type IssueService interface {
	Report(beauticianID uuid.UUID, input ReportIssueInput) (*model.Issue, error)
	List(status model.IssueStatus) ([]repository.IssueRow, error)
	Resolve(issueID, resolvedBy uuid.UUID) (*model.Issue, error)
}

type issueService struct {
	issueRepo repository.IssueRepository
	wsHub     *ws.Hub
	now       func() time.Time
}

func NewIssueService(issueRepo repository.IssueRepository, hub *ws.Hub) IssueService {
	return &issueService{
		issueRepo: issueRepo,
		wsHub:     hub,
		now:       time.Now,
	}
}

func (s *issueService) Report(beauticianID uuid.UUID, input ReportIssueInput) (*model.Issue, error) {
	if errs := validator.ValidateStruct(&input); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	issue := &model.Issue{
		BeauticianID: beauticianID,
		OrderID:      input.OrderID,
		IssueType:    input.IssueType,
		Notes:        input.Notes,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Status:       model.IssueOpen,
		ReportedAt:   s.now(),
	}
	issue.CreatedBy = beauticianID.String()

	if err := s.issueRepo.Create(issue); err != nil {
		return nil, err
	}

	s.broadcast("issue_reported", issue)
	return issue, nil
}

func (s *issueService) List(status model.IssueStatus) ([]repository.IssueRow, error) {
	if status == "" {
		return s.issueRepo.FindAll()
	}
	return s.issueRepo.FindByStatus(status)
}

func (s *issueService) Resolve(issueID, resolvedBy uuid.UUID) (*model.Issue, error) {
	issue, err := s.issueRepo.FindByID(issueID)
	if err != nil {
		return nil, ErrIssueNotFound
	}
	if issue.Resolved() {
		return nil, ErrIssueAlreadyResolved
	}

	resolvedAt := s.now()
	rows, err := s.issueRepo.Resolve(issueID, resolvedBy, resolvedAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Another admin closed it first.
		return nil, ErrIssueAlreadyResolved
	}

	issue.Status = model.IssueResolved
	issue.ResolvedAt = &resolvedAt
	issue.ResolvedBy = &resolvedBy

	s.broadcast("issue_resolved", issue)
	return issue, nil
}

func (s *issueService) broadcast(action string, issue *model.Issue) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":          "issue_update",
			"action":        action,
			"issue_id":      issue.ID,
			"beautician_id": issue.BeauticianID,
			"issue_type":    issue.IssueType,
			"status":        issue.Status,
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
