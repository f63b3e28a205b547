package repository

import (
	"os"
	"time"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CancelledOrderRow pairs a cancelled order with its assignee name for the
// admin cancellations view
type CancelledOrderRow struct {
	Order        model.Order `json:"order"`
	EmployeeName *string     `json:"employee_name"`
}

// OverviewStats is the admin dashboard counters block. PendingRequests and
// OpenIssues are filled in by the service from their own repositories.
type OverviewStats struct {
	TotalWorkers    int64 `json:"total_workers"`
	OnShiftWorkers  int64 `json:"on_shift_workers"`
	TotalOrders     int64 `json:"total_orders"`
	CompletedToday  int64 `json:"completed_today"`
	PendingRequests int64 `json:"pending_requests"`
	OpenIssues      int64 `json:"open_issues"`
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uuid.UUID) (*model.Order, error)
	FindByEmployee(employeeID uuid.UUID) ([]model.Order, error)
	UpdateStatus(id uuid.UUID, status model.OrderStatus, updatedBy string) error
	SetCancellationReason(id uuid.UUID, reason string) error
	FindCancelled() ([]CancelledOrderRow, error)
	// ExpireStale marks pending/confirmed orders with an appointment before
	// the cutoff as expired with reason no_action_expired.
	ExpireStale(before time.Time, reason string) (int64, error)
	OverviewStats() (*OverviewStats, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepo) FindByID(id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Employee").First(&order, "id = ?", id).Error
	return &order, err
}

func (r *orderRepo) FindByEmployee(employeeID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Where("employee_id = ?", employeeID).
		Order("appointment_time DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) UpdateStatus(id uuid.UUID, status model.OrderStatus, updatedBy string) error {
	return r.db.Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		}).Error
}

func (r *orderRepo) SetCancellationReason(id uuid.UUID, reason string) error {
	return r.db.Model(&model.Order{}).
		Where("id = ?", id).
		Update("acceptance_status", reason).Error
}

func (r *orderRepo) FindCancelled() ([]CancelledOrderRow, error) {
	var orders []model.Order
	err := r.db.Preload("Employee").
		Where("status IN ?", []model.OrderStatus{model.OrderCancelled, model.OrderExpired}).
		Order("appointment_time DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	rows := make([]CancelledOrderRow, 0, len(orders))
	for _, o := range orders {
		row := CancelledOrderRow{Order: o}
		if o.Employee != nil {
			name := o.Employee.FullName
			row.EmployeeName = &name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *orderRepo) ExpireStale(before time.Time, reason string) (int64, error) {
	result := r.db.Model(&model.Order{}).
		Where("status IN ? AND appointment_time < ?",
			[]model.OrderStatus{model.OrderPending, model.OrderConfirmed}, before).
		Updates(map[string]interface{}{
			"status":            model.OrderExpired,
			"acceptance_status": reason,
		})
	return result.RowsAffected, result.Error
}

// appLocation is the timezone the "today" dashboard boundary is computed in.
// APP_TIMEZONE overrides it; otherwise the host's local zone applies, which
// deployments pin alongside the database TimeZone DSN parameter.
func appLocation() *time.Location {
	if name := os.Getenv("APP_TIMEZONE"); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.Local
}

// startOfDay returns midnight of t's calendar day in t's location
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (r *orderRepo) OverviewStats() (*OverviewStats, error) {
	var stats OverviewStats
	today := startOfDay(time.Now().In(appLocation()))

	if err := r.db.Model(&model.Employee{}).
		Where("role = ?", model.RoleEmployee).
		Count(&stats.TotalWorkers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Employee{}).
		Where("role = ? AND is_on_shift = true", model.RoleEmployee).
		Count(&stats.OnShiftWorkers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Order{}).
		Where("status = ? AND appointment_time >= ?", model.OrderCompleted, today).
		Count(&stats.CompletedToday).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
