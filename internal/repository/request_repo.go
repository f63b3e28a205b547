package repository

import (
	"time"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(request *model.ProductRequest) error
	FindByID(id uuid.UUID) (*model.ProductRequest, error)
	FindByStatus(status model.RequestStatus) ([]model.ProductRequest, error)
	FindAll() ([]model.ProductRequest, error)
	CountPending() (int64, error)

	// MarkDecided performs the single pending -> terminal transition with an
	// optimistic precondition on the current status. Returns the number of
	// rows updated; zero means another admin already decided the request.
	MarkDecided(id uuid.UUID, status model.RequestStatus, quantityApproved decimal.Decimal, approvedBy uuid.UUID, approvedAt time.Time) (int64, error)
}

type requestRepo struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db}
}

func (r *requestRepo) Create(request *model.ProductRequest) error {
	return r.db.Create(request).Error
}

func (r *requestRepo) FindByID(id uuid.UUID) (*model.ProductRequest, error) {
	var request model.ProductRequest
	err := r.db.Preload("Product").Preload("Beautician").First(&request, "id = ?", id).Error
	return &request, err
}

func (r *requestRepo) FindByStatus(status model.RequestStatus) ([]model.ProductRequest, error) {
	var requests []model.ProductRequest
	err := r.db.Preload("Product").Preload("Beautician").
		Where("status = ?", status).
		Order("requested_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *requestRepo) FindAll() ([]model.ProductRequest, error) {
	var requests []model.ProductRequest
	err := r.db.Preload("Product").Preload("Beautician").
		Order("requested_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *requestRepo) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&model.ProductRequest{}).
		Where("status = ?", model.RequestPending).
		Count(&count).Error
	return count, err
}

func (r *requestRepo) MarkDecided(id uuid.UUID, status model.RequestStatus, quantityApproved decimal.Decimal, approvedBy uuid.UUID, approvedAt time.Time) (int64, error) {
	result := r.db.Model(&model.ProductRequest{}).
		Where("id = ? AND status = ?", id, model.RequestPending).
		Updates(map[string]interface{}{
			"status":            status,
			"quantity_approved": quantityApproved,
			"approved_by":       approvedBy,
			"approved_at":       approvedAt,
			"updated_by":        approvedBy.String(),
		})
	return result.RowsAffected, result.Error
}
