package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrNotCancelled    = errors.New("order is not cancelled")
	ErrNotWorkerCaused = errors.New("only worker-caused cancellations can be reallocated")
)

// Cancellation buckets
const (
	BucketCustomer   = "customer"
	BucketBeautician = "beautician"
)

// ReasonExpired is the code the inactivity sweep stamps on stale orders
const ReasonExpired = "no_action_expired"

// Fixed reason-code -> bucket table. Every normalized code classifies into
// exactly one responsible party.
var cancellationBuckets = map[string]string{
	"customer_cancelled_emergency": BucketCustomer,
	"customer_not_available":       BucketCustomer,
	"customer_canceled_delay":      BucketCustomer,
	"unwell":                       BucketBeautician,
	"timing_conflict":              BucketBeautician,
	"location_issue":               BucketBeautician,
	ReasonExpired:                  BucketBeautician,
}

// NormalizeReason folds a free-text cancellation reason to its code form
func NormalizeReason(reason string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(reason)), " ", "_")
}

// BucketForReason classifies a cancellation reason. Unknown codes default
// to the customer bucket so they never become silently reallocatable.
func BucketForReason(reason string) string {
	if bucket, ok := cancellationBuckets[NormalizeReason(reason)]; ok {
		return bucket
	}
	return BucketCustomer
}

var validStatuses = map[model.OrderStatus]bool{
	model.OrderPending:    true,
	model.OrderConfirmed:  true,
	model.OrderInProgress: true,
	model.OrderCompleted:  true,
	model.OrderCancelled:  true,
	model.OrderExpired:    true,
}

type OrderService interface {
	GetOrder(id uuid.UUID) (*model.Order, error)
	GetOrdersForEmployee(employeeID uuid.UUID) ([]model.Order, error)
	CreateOrder(order *model.Order, createdBy string) error
	// UpdateStatus applies a status transition. The transition into
	// completed (and only that edge) fires inventory auto-deduction inline;
	// deduction failures are logged and never block the caller.
	UpdateStatus(id uuid.UUID, status model.OrderStatus, reason, updatedBy string) (*model.Order, error)
	GetCancelledOrders(category string) ([]repository.CancelledOrderRow, error)
	// Reallocate clones a worker-cancelled order into a fresh unassigned
	// pending order. The original is never mutated back to active.
	Reallocate(orderID uuid.UUID, requestedBy string) (*model.Order, error)
	ExpireInactiveOrders(before time.Time) (int64, error)
	OverviewStats() (*repository.OverviewStats, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	requestRepo repository.RequestRepository
	issueRepo   repository.IssueRepository
	consumption ConsumptionService
}

func NewOrderService(orderRepo repository.OrderRepository, requestRepo repository.RequestRepository, issueRepo repository.IssueRepository, consumption ConsumptionService) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		requestRepo: requestRepo,
		issueRepo:   issueRepo,
		consumption: consumption,
	}
}

func (s *orderService) GetOrder(id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) GetOrdersForEmployee(employeeID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.FindByEmployee(employeeID)
}

func (s *orderService) CreateOrder(order *model.Order, createdBy string) error {
	order.CreatedBy = createdBy
	order.UpdatedBy = createdBy
	if order.Status == "" {
		order.Status = model.OrderPending
	}
	return s.orderRepo.Create(order)
}

func (s *orderService) UpdateStatus(id uuid.UUID, status model.OrderStatus, reason, updatedBy string) (*model.Order, error) {
	if !validStatuses[status] {
		return nil, ErrInvalidStatus
	}

	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	wasCompleted := order.Status == model.OrderCompleted

	if err := s.orderRepo.UpdateStatus(id, status, updatedBy); err != nil {
		return nil, err
	}
	order.Status = status

	if status == model.OrderCancelled && reason != "" {
		code := NormalizeReason(reason)
		if err := s.orderRepo.SetCancellationReason(id, code); err != nil {
			return nil, err
		}
		order.AcceptanceStatus = code
	}

	// Fire auto-deduction on the completion edge only. Inventory is
	// best-effort: order completion must never be blocked by it.
	if status == model.OrderCompleted && !wasCompleted {
		if err := s.consumption.OnOrderCompleted(id); err != nil {
			log.Printf("order %s: inventory deduction failed: %v", id, err)
		}
	}

	return order, nil
}

func (s *orderService) GetCancelledOrders(category string) ([]repository.CancelledOrderRow, error) {
	rows, err := s.orderRepo.FindCancelled()
	if err != nil {
		return nil, err
	}
	if category == "" {
		return rows, nil
	}

	filtered := make([]repository.CancelledOrderRow, 0, len(rows))
	for _, row := range rows {
		if BucketForReason(row.Order.AcceptanceStatus) == category {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func (s *orderService) Reallocate(orderID uuid.UUID, requestedBy string) (*model.Order, error) {
	original, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	if original.Status != model.OrderCancelled && original.Status != model.OrderExpired {
		return nil, ErrNotCancelled
	}
	if BucketForReason(original.AcceptanceStatus) != BucketBeautician {
		return nil, ErrNotWorkerCaused
	}

	clone := &model.Order{
		CustomerName:     original.CustomerName,
		Phone:            original.Phone,
		Address:          original.Address,
		Latitude:         original.Latitude,
		Longitude:        original.Longitude,
		Services:         original.Services,
		Amount:           original.Amount,
		Duration:         original.Duration,
		AppointmentTime:  original.AppointmentTime,
		PaymentMode:      original.PaymentMode,
		Status:           model.OrderPending,
		EmployeeID:       nil,
		ExternalOrderID:  uuid.NewString(),
		ReferenceOrderID: &original.ID,
	}
	clone.CreatedBy = requestedBy
	clone.UpdatedBy = requestedBy

	if err := s.orderRepo.Create(clone); err != nil {
		return nil, err
	}
	return clone, nil
}

func (s *orderService) ExpireInactiveOrders(before time.Time) (int64, error) {
	return s.orderRepo.ExpireStale(before, ReasonExpired)
}

func (s *orderService) OverviewStats() (*repository.OverviewStats, error) {
	stats, err := s.orderRepo.OverviewStats()
	if err != nil {
		return nil, err
	}
	if stats.PendingRequests, err = s.requestRepo.CountPending(); err != nil {
		return nil, err
	}
	if stats.OpenIssues, err = s.issueRepo.CountOpen(); err != nil {
		return nil, err
	}
	return stats, nil
}
