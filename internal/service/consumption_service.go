package service

import (
	"encoding/json"
	"log"
	"sort"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"
	"go-dispatch-ws/internal/ws"

	"github.com/google/uuid"
)

// ConsumptionService deducts inventory exactly once per completed order.
// Idempotency is layered: a fast-exit check on existing rows, then the
// (order_id, product_id) uniqueness constraint absorbing any last-moment
// race with a concurrent duplicate trigger.
type ConsumptionService interface {
	OnOrderCompleted(orderID uuid.UUID) error
}

type consumptionService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	ledgerRepo  repository.LedgerRepository
	wsHub       *ws.Hub
}

func NewConsumptionService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	ledgerRepo repository.LedgerRepository,
	hub *ws.Hub,
) ConsumptionService {
	return &consumptionService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		ledgerRepo:  ledgerRepo,
		wsHub:       hub,
	}
}

func (s *consumptionService) OnOrderCompleted(orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return err
	}

	// No assigned worker means no one to attribute consumption to; the
	// inventory step is skipped entirely.
	if order.EmployeeID == nil {
		return nil
	}

	// Fast exit: duplicate trigger is success-no-op, not an error.
	exists, err := s.ledgerRepo.HasConsumptionForOrder(order.ID, order.ExternalOrderID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	names := make([]string, 0, len(order.Services))
	seen := make(map[string]bool)
	for _, svc := range order.Services {
		name := NormalizeServiceName(svc.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	mappings, err := s.productRepo.MappingsForServices(names)
	if err != nil {
		return err
	}
	defaults, err := s.productRepo.FindDefaults()
	if err != nil {
		return err
	}

	productIDs := make([]uuid.UUID, 0, len(mappings)+len(defaults))
	for _, m := range mappings {
		productIDs = append(productIDs, m.ProductID)
	}
	for _, d := range defaults {
		productIDs = append(productIDs, d.ProductID)
	}
	products, err := s.productRepo.FindByIDs(productIDs)
	if err != nil {
		return err
	}

	res := ResolveProducts(order.ServiceNames(), mappings, products, defaults)

	// Resolution gaps are logged and skipped; a failure to log one gap must
	// not abort the rest.
	for _, name := range res.UnmappedServices {
		entry := &model.MissingProductLog{
			OrderID:         order.ID,
			ExternalOrderID: order.ExternalOrderID,
			ServiceName:     name,
		}
		if err := s.productRepo.LogMissing(entry); err != nil {
			log.Printf("consumption: failed to log unmapped service %q for order %s: %v", name, order.ID, err)
		}
	}
	for _, up := range res.UnresolvedProducts {
		entry := &model.MissingProductLog{
			OrderID:         order.ID,
			ExternalOrderID: order.ExternalOrderID,
			ServiceName:     up.ServiceName,
			ProductName:     up.ProductName,
		}
		if err := s.productRepo.LogMissing(entry); err != nil {
			log.Printf("consumption: failed to log unresolved product for order %s: %v", order.ID, err)
		}
	}

	if len(res.Quantities) == 0 {
		return nil
	}

	// Stable insert order keeps bulk statements deterministic.
	ids := make([]uuid.UUID, 0, len(res.Quantities))
	for id := range res.Quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	rows := make([]model.ProductConsumption, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, model.ProductConsumption{
			OrderID:         order.ID,
			ExternalOrderID: order.ExternalOrderID,
			BeauticianID:    *order.EmployeeID,
			ProductID:       id,
			QuantityUsed:    res.Quantities[id],
			AutoGenerated:   true,
		})
	}

	if err := s.ledgerRepo.InsertConsumptions(rows); err != nil {
		return err
	}

	s.broadcastDeduction(order, len(rows))
	return nil
}

func (s *consumptionService) broadcastDeduction(order *model.Order, productCount int) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":          "stock_update",
			"action":        "order_consumption",
			"order_id":      order.ID,
			"beautician_id": order.EmployeeID,
			"products":      productCount,
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
