package service

import (
	"encoding/json"
	"errors"
	"time"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"
	"go-dispatch-ws/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrRequestNotFound       = errors.New("product request not found")
	ErrRequestAlreadyDecided = errors.New("product request already decided")
)

// RequestService drives the worker low-stock request workflow. A request is
// decided exactly once: approve runs behind an optimistic status=pending
// precondition, so a second admin racing on the same request gets
// ErrRequestAlreadyDecided and the ledger is untouched.
type RequestService interface {
	CreateRequest(beauticianID, productID uuid.UUID, quantityRequested decimal.Decimal) (*model.ProductRequest, error)
	Approve(requestID, approvedBy uuid.UUID, quantityApproved decimal.Decimal) (*model.ProductRequest, error)
	GetRequests(status model.RequestStatus) ([]model.ProductRequest, error)
}

type requestService struct {
	requestRepo repository.RequestRepository
	stock       StockService
	wsHub       *ws.Hub
	now         func() time.Time
}

func NewRequestService(requestRepo repository.RequestRepository, stock StockService, hub *ws.Hub) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		stock:       stock,
		wsHub:       hub,
		now:         time.Now,
	}
}

func (s *requestService) CreateRequest(beauticianID, productID uuid.UUID, quantityRequested decimal.Decimal) (*model.ProductRequest, error) {
	if quantityRequested.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	request := &model.ProductRequest{
		BeauticianID:      beauticianID,
		ProductID:         productID,
		QuantityRequested: quantityRequested,
		Status:            model.RequestPending,
		RequestedAt:       s.now(),
	}
	request.CreatedBy = beauticianID.String()

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	s.broadcast("request_created", request)
	return request, nil
}

func (s *requestService) Approve(requestID, approvedBy uuid.UUID, quantityApproved decimal.Decimal) (*model.ProductRequest, error) {
	request, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	if request.Decided() {
		return nil, ErrRequestAlreadyDecided
	}

	var status model.RequestStatus
	switch {
	case quantityApproved.LessThanOrEqual(decimal.Zero):
		status = model.RequestRejected
	case quantityApproved.GreaterThanOrEqual(request.QuantityRequested):
		status = model.RequestApproved
	default:
		status = model.RequestPartiallyApproved
	}

	decidedAt := s.now()
	rows, err := s.requestRepo.MarkDecided(requestID, status, quantityApproved, approvedBy, decidedAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Another admin won the race.
		return nil, ErrRequestAlreadyDecided
	}

	if quantityApproved.GreaterThan(decimal.Zero) {
		// The synthetic invoice keys the ledger side to this request, so a
		// replayed approve call is a no-op on the ledger.
		_, err := s.stock.RecordPurchase(PurchaseInput{
			ProductID:     request.ProductID,
			Quantity:      quantityApproved,
			PurchaseDate:  decidedAt,
			VendorName:    "Internal Transfer",
			InvoiceNumber: "REQ-" + requestID.String(),
			PurchasedBy:   &approvedBy,
		})
		if err != nil {
			return nil, err
		}
	}

	request.Status = status
	request.QuantityApproved = &quantityApproved
	request.ApprovedAt = &decidedAt
	request.ApprovedBy = &approvedBy

	s.broadcast("request_decided", request)
	return request, nil
}

func (s *requestService) GetRequests(status model.RequestStatus) ([]model.ProductRequest, error) {
	if status == "" {
		return s.requestRepo.FindAll()
	}
	return s.requestRepo.FindByStatus(status)
}

func (s *requestService) broadcast(action string, request *model.ProductRequest) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":          "product_request",
			"action":        action,
			"request_id":    request.ID,
			"beautician_id": request.BeauticianID,
			"product_id":    request.ProductID,
			"status":        request.Status,
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
