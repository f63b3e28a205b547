package repository

import (
	"time"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IssueRow pairs an issue with its reporter name for the admin panel
type IssueRow struct {
	Issue        model.Issue `json:"issue"`
	EmployeeName *string     `json:"employee_name"`
}

type IssueRepository interface {
	// Create inserts the report and flags the referenced order, when there
	// is one, in the same database transaction.
	Create(issue *model.Issue) error
	FindByID(id uuid.UUID) (*model.Issue, error)
	FindAll() ([]IssueRow, error)
	FindByStatus(status model.IssueStatus) ([]IssueRow, error)
	CountOpen() (int64, error)
	// Resolve performs the single open -> resolved transition with an
	// optimistic precondition on the current status. Returns the number of
	// rows updated; zero means the issue was already resolved.
	Resolve(id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error)
}

type issueRepo struct {
	db *gorm.DB
}

func NewIssueRepo(db *gorm.DB) IssueRepository {
	return &issueRepo{db}
}

func (r *issueRepo) Create(issue *model.Issue) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(issue).Error; err != nil {
			return err
		}
		if issue.OrderID != nil {
			return tx.Model(&model.Order{}).
				Where("id = ?", *issue.OrderID).
				Update("has_issue", true).Error
		}
		return nil
	})
}

func (r *issueRepo) FindByID(id uuid.UUID) (*model.Issue, error) {
	var issue model.Issue
	err := r.db.Preload("Beautician").Preload("Order").First(&issue, "id = ?", id).Error
	return &issue, err
}

func (r *issueRepo) FindAll() ([]IssueRow, error) {
	var issues []model.Issue
	err := r.db.Preload("Beautician").Preload("Order").
		Order("reported_at DESC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return toIssueRows(issues), nil
}

func (r *issueRepo) FindByStatus(status model.IssueStatus) ([]IssueRow, error) {
	var issues []model.Issue
	err := r.db.Preload("Beautician").Preload("Order").
		Where("status = ?", status).
		Order("reported_at DESC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return toIssueRows(issues), nil
}

func (r *issueRepo) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&model.Issue{}).
		Where("status = ?", model.IssueOpen).
		Count(&count).Error
	return count, err
}

func (r *issueRepo) Resolve(id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error) {
	result := r.db.Model(&model.Issue{}).
		Where("id = ? AND status = ?", id, model.IssueOpen).
		Updates(map[string]interface{}{
			"status":      model.IssueResolved,
			"resolved_by": resolvedBy,
			"resolved_at": resolvedAt,
			"updated_by":  resolvedBy.String(),
		})
	return result.RowsAffected, result.Error
}

func toIssueRows(issues []model.Issue) []IssueRow {
	rows := make([]IssueRow, 0, len(issues))
	for _, issue := range issues {
		row := IssueRow{Issue: issue}
		if issue.Beautician != nil {
			name := issue.Beautician.FullName
			row.EmployeeName = &name
		}
		rows = append(rows, row)
	}
	return rows
}
