package repository

import (
	"errors"
	"time"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackingBoardRow is one field worker on the dispatch live board
type TrackingBoardRow struct {
	EmployeeID         uuid.UUID  `json:"employee_id"`
	FullName           string     `json:"full_name"`
	IsOnShift          bool       `json:"is_on_shift"`
	CurrentLatitude    *float64   `json:"current_latitude,omitempty"`
	CurrentLongitude   *float64   `json:"current_longitude,omitempty"`
	LastLocationAt     *time.Time `json:"last_location_at,omitempty"`
	CurrentOrderStatus *string    `json:"current_order_status,omitempty"`
	HasActiveIssue     bool       `json:"has_active_issue"`
}

type TrackingRepository interface {
	// Append inserts one immutable tracking point and refreshes the
	// denormalized current-position fields on the employee row in the same
	// database transaction.
	Append(point *model.LiveTrackingPoint) error
	Latest(beauticianID uuid.UUID) (*model.LiveTrackingPoint, error)
	History(beauticianID uuid.UUID, since *time.Time) ([]model.LiveTrackingPoint, error)
	HistoryForOrder(orderID uuid.UUID) ([]model.LiveTrackingPoint, error)
	CleanupOlderThan(cutoff time.Time) (int64, error)
	Board() ([]TrackingBoardRow, error)
}

type trackingRepo struct {
	db *gorm.DB
}

func NewTrackingRepo(db *gorm.DB) TrackingRepository {
	return &trackingRepo{db}
}

func (r *trackingRepo) Append(point *model.LiveTrackingPoint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(point).Error; err != nil {
			return err
		}
		return tx.Model(&model.Employee{}).
			Where("id = ?", point.BeauticianID).
			Updates(map[string]interface{}{
				"current_latitude":  point.Latitude,
				"current_longitude": point.Longitude,
				"last_location_at":  point.Timestamp,
			}).Error
	})
}

func (r *trackingRepo) Latest(beauticianID uuid.UUID) (*model.LiveTrackingPoint, error) {
	var point model.LiveTrackingPoint
	err := r.db.Where("beautician_id = ?", beauticianID).
		Order("timestamp DESC").
		First(&point).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &point, nil
}

// History returns points most-recent-first. Retries may land out of order,
// so presentation sorts by timestamp rather than relying on insertion order.
func (r *trackingRepo) History(beauticianID uuid.UUID, since *time.Time) ([]model.LiveTrackingPoint, error) {
	var points []model.LiveTrackingPoint
	q := r.db.Where("beautician_id = ?", beauticianID)
	if since != nil {
		q = q.Where("timestamp >= ?", *since)
	}
	err := q.Order("timestamp DESC").Find(&points).Error
	return points, err
}

func (r *trackingRepo) HistoryForOrder(orderID uuid.UUID) ([]model.LiveTrackingPoint, error) {
	var points []model.LiveTrackingPoint
	err := r.db.Where("order_id = ?", orderID).
		Order("timestamp DESC").
		Find(&points).Error
	return points, err
}

// CleanupOlderThan hard-deletes points past the retention window. Safe to
// run alongside ingestion since only strictly old rows are touched.
func (r *trackingRepo) CleanupOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("timestamp < ?", cutoff).
		Delete(&model.LiveTrackingPoint{})
	return result.RowsAffected, result.Error
}

func (r *trackingRepo) Board() ([]TrackingBoardRow, error) {
	var rows []TrackingBoardRow
	err := r.db.Raw(`
		SELECT e.id AS employee_id, e.full_name, e.is_on_shift,
			e.current_latitude, e.current_longitude, e.last_location_at,
			o.status AS current_order_status,
			EXISTS (
				SELECT 1 FROM issues i
				WHERE i.beautician_id = e.id
					AND i.status = 'open'
					AND i.deleted_at IS NULL
			) AS has_active_issue
		FROM employees e
		LEFT JOIN LATERAL (
			SELECT status FROM orders
			WHERE employee_id = e.id
				AND status IN ('confirmed', 'in_progress')
				AND deleted_at IS NULL
			ORDER BY appointment_time DESC
			LIMIT 1
		) o ON true
		WHERE e.role = 'employee' AND e.deleted_at IS NULL
		ORDER BY e.full_name ASC
	`).Scan(&rows).Error
	return rows, err
}
