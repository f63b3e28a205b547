package service

import (
	"testing"
	"time"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type consumptionFixture struct {
	orderRepo   *fakeOrderRepo
	productRepo *fakeProductRepo
	ledgerRepo  *fakeLedgerRepo
	svc         ConsumptionService
}

func newConsumptionFixture() *consumptionFixture {
	f := &consumptionFixture{
		orderRepo:   newFakeOrderRepo(),
		productRepo: newFakeProductRepo(),
		ledgerRepo:  newFakeLedgerRepo(),
	}
	f.svc = NewConsumptionService(f.orderRepo, f.productRepo, f.ledgerRepo, nil)
	return f
}

func (f *consumptionFixture) createOrder(t *testing.T, employeeID *uuid.UUID, externalID string, services ...string) *model.Order {
	t.Helper()
	items := make(model.ServiceList, len(services))
	for i, s := range services {
		items[i] = model.ServiceItem{Name: s}
	}
	order := &model.Order{
		CustomerName:    "Test Customer",
		Phone:           "9999999999",
		Address:         "12 Test Lane",
		Services:        items,
		AppointmentTime: time.Now(),
		Status:          model.OrderInProgress,
		EmployeeID:      employeeID,
		ExternalOrderID: externalID,
	}
	if err := f.orderRepo.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestOnOrderCompletedDeductsExpectedQuantities(t *testing.T) {
	f := newConsumptionFixture()
	worker := uuid.New()
	waxID := f.productRepo.addProduct("Wax", true)
	oilID := f.productRepo.addProduct("Oil", true)
	f.productRepo.addMapping("waxing", waxID, "30")
	f.productRepo.addMapping("massage", oilID, "50")

	order := f.createOrder(t, &worker, "EXT-1", "Waxing", "Massage")

	if err := f.svc.OnOrderCompleted(order.ID); err != nil {
		t.Fatalf("OnOrderCompleted: %v", err)
	}

	rows, _ := f.ledgerRepo.FindConsumptionsForOrder(order.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 consumption rows, got %d", len(rows))
	}
	byProduct := make(map[uuid.UUID]model.ProductConsumption)
	for _, r := range rows {
		byProduct[r.ProductID] = r
	}
	if got := byProduct[waxID].QuantityUsed; !got.Equal(decimal.RequireFromString("30")) {
		t.Errorf("wax quantity = %s, want 30", got)
	}
	if got := byProduct[oilID].QuantityUsed; !got.Equal(decimal.RequireFromString("50")) {
		t.Errorf("oil quantity = %s, want 50", got)
	}
	for _, r := range rows {
		if !r.AutoGenerated {
			t.Errorf("expected auto_generated row for product %s", r.ProductID)
		}
		if r.BeauticianID != worker {
			t.Errorf("row attributed to %s, want %s", r.BeauticianID, worker)
		}
	}
}

func TestOnOrderCompletedIsIdempotent(t *testing.T) {
	f := newConsumptionFixture()
	worker := uuid.New()
	waxID := f.productRepo.addProduct("Wax", true)
	f.productRepo.addMapping("waxing", waxID, "30")

	order := f.createOrder(t, &worker, "EXT-2", "Waxing")

	for i := 0; i < 3; i++ {
		if err := f.svc.OnOrderCompleted(order.ID); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}

	rows, _ := f.ledgerRepo.FindConsumptionsForOrder(order.ID)
	if len(rows) != 1 {
		t.Fatalf("duplicate triggers must collapse to one row set, got %d rows", len(rows))
	}

	left, _ := f.ledgerRepo.StockLeft(waxID)
	if !left.Equal(decimal.RequireFromString("-30")) {
		t.Errorf("stock impact should be a single -30, got %s", left)
	}
}

func TestOnOrderCompletedGuardsByExternalOrderID(t *testing.T) {
	f := newConsumptionFixture()
	worker := uuid.New()
	waxID := f.productRepo.addProduct("Wax", true)
	f.productRepo.addMapping("waxing", waxID, "30")

	// Same logical order imported twice under two internal ids
	first := f.createOrder(t, &worker, "SHEET-ROW-9", "Waxing")
	second := f.createOrder(t, &worker, "SHEET-ROW-9", "Waxing")

	if err := f.svc.OnOrderCompleted(first.ID); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := f.svc.OnOrderCompleted(second.ID); err != nil {
		t.Fatalf("second: %v", err)
	}

	left, _ := f.ledgerRepo.StockLeft(waxID)
	if !left.Equal(decimal.RequireFromString("-30")) {
		t.Errorf("duplicate import must deduct once, stock delta %s", left)
	}
}

func TestOnOrderCompletedSkipsUnassignedOrder(t *testing.T) {
	f := newConsumptionFixture()
	waxID := f.productRepo.addProduct("Wax", true)
	f.productRepo.addMapping("waxing", waxID, "30")

	order := f.createOrder(t, nil, "EXT-3", "Waxing")

	if err := f.svc.OnOrderCompleted(order.ID); err != nil {
		t.Fatalf("OnOrderCompleted: %v", err)
	}
	rows, _ := f.ledgerRepo.FindConsumptionsForOrder(order.ID)
	if len(rows) != 0 {
		t.Errorf("unassigned order must not consume stock, got %d rows", len(rows))
	}
}

func TestOnOrderCompletedLogsUnmappedServiceAndDeductsRest(t *testing.T) {
	f := newConsumptionFixture()
	worker := uuid.New()
	waxID := f.productRepo.addProduct("Wax", true)
	f.productRepo.addMapping("waxing", waxID, "30")

	order := f.createOrder(t, &worker, "EXT-4", "Waxing", "Unknown Ritual")

	if err := f.svc.OnOrderCompleted(order.ID); err != nil {
		t.Fatalf("OnOrderCompleted: %v", err)
	}

	rows, _ := f.ledgerRepo.FindConsumptionsForOrder(order.ID)
	if len(rows) != 1 || rows[0].ProductID != waxID {
		t.Fatalf("mapped service must still deduct, got %+v", rows)
	}

	logs, _ := f.productRepo.FindMissingLogs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 missing log, got %d", len(logs))
	}
	if logs[0].ServiceName != "unknown ritual" || logs[0].OrderID != order.ID {
		t.Errorf("unexpected log entry %+v", logs[0])
	}
}

func TestOnOrderCompletedLogFailureDoesNotAbort(t *testing.T) {
	f := newConsumptionFixture()
	worker := uuid.New()
	waxID := f.productRepo.addProduct("Wax", true)
	f.productRepo.addMapping("waxing", waxID, "30")
	f.productRepo.failLogMissing = true

	order := f.createOrder(t, &worker, "EXT-5", "Waxing", "Unknown Ritual")

	if err := f.svc.OnOrderCompleted(order.ID); err != nil {
		t.Fatalf("log failure must not abort deduction: %v", err)
	}
	rows, _ := f.ledgerRepo.FindConsumptionsForOrder(order.ID)
	if len(rows) != 1 {
		t.Errorf("expected deduction despite log failure, got %d rows", len(rows))
	}
}

func TestOnOrderCompletedDefaultsOnlyOrder(t *testing.T) {
	f := newConsumptionFixture()
	worker := uuid.New()
	glovesID := f.productRepo.addProduct("Gloves", true)
	f.productRepo.addDefault(glovesID, "2")

	order := f.createOrder(t, &worker, "EXT-6", "Unmapped Service")

	if err := f.svc.OnOrderCompleted(order.ID); err != nil {
		t.Fatalf("OnOrderCompleted: %v", err)
	}

	rows, _ := f.ledgerRepo.FindConsumptionsForOrder(order.ID)
	if len(rows) != 1 || rows[0].ProductID != glovesID {
		t.Fatalf("defaults must still post with no mapped services, got %+v", rows)
	}
	if !rows[0].QuantityUsed.Equal(decimal.NewFromInt(2)) {
		t.Errorf("default quantity = %s, want 2", rows[0].QuantityUsed)
	}
}
