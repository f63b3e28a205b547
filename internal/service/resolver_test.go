package service

import (
	"testing"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mapping(service string, productID uuid.UUID, qty string) model.ServiceProductMapping {
	return model.ServiceProductMapping{
		ServiceName:      service,
		ProductID:        productID,
		QuantityRequired: decimal.RequireFromString(qty),
	}
}

func activeProduct(id uuid.UUID, name string) model.Product {
	p := model.Product{Name: name, Unit: "ml", IsActive: true}
	p.ID = id
	return p
}

func TestResolveProductsSingleService(t *testing.T) {
	waxID := uuid.New()
	res := ResolveProducts(
		[]string{"Full Body Wax"},
		[]model.ServiceProductMapping{mapping("full body wax", waxID, "120")},
		map[uuid.UUID]model.Product{waxID: activeProduct(waxID, "Wax")},
		nil,
	)

	if len(res.Quantities) != 1 {
		t.Fatalf("expected 1 product, got %d", len(res.Quantities))
	}
	if got := res.Quantities[waxID]; !got.Equal(decimal.RequireFromString("120")) {
		t.Errorf("expected 120, got %s", got)
	}
	if len(res.UnmappedServices) != 0 || len(res.UnresolvedProducts) != 0 {
		t.Errorf("expected no gaps, got %+v", res)
	}
}

func TestResolveProductsRepeatedServiceDoubles(t *testing.T) {
	oilID := uuid.New()
	res := ResolveProducts(
		[]string{"Massage", "massage"},
		[]model.ServiceProductMapping{mapping("massage", oilID, "50")},
		map[uuid.UUID]model.Product{oilID: activeProduct(oilID, "Oil")},
		nil,
	)

	if got := res.Quantities[oilID]; !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected doubled quantity 100, got %s", got)
	}
}

func TestResolveProductsUnmappedServiceDoesNotBlockOthers(t *testing.T) {
	waxID := uuid.New()
	res := ResolveProducts(
		[]string{"Waxing", "Mystery Treatment"},
		[]model.ServiceProductMapping{mapping("waxing", waxID, "30")},
		map[uuid.UUID]model.Product{waxID: activeProduct(waxID, "Wax")},
		nil,
	)

	if got := res.Quantities[waxID]; !got.Equal(decimal.RequireFromString("30")) {
		t.Errorf("mapped service should still resolve, got %s", got)
	}
	if len(res.UnmappedServices) != 1 || res.UnmappedServices[0] != "mystery treatment" {
		t.Errorf("expected mystery treatment unmapped, got %v", res.UnmappedServices)
	}
}

func TestResolveProductsInactiveProductUnresolved(t *testing.T) {
	deadID := uuid.New()
	inactive := activeProduct(deadID, "Discontinued")
	inactive.IsActive = false

	res := ResolveProducts(
		[]string{"facial"},
		[]model.ServiceProductMapping{mapping("facial", deadID, "10")},
		map[uuid.UUID]model.Product{deadID: inactive},
		nil,
	)

	if len(res.Quantities) != 0 {
		t.Errorf("inactive product must not be deducted, got %v", res.Quantities)
	}
	if len(res.UnresolvedProducts) != 1 || res.UnresolvedProducts[0].ProductName != "Discontinued" {
		t.Errorf("expected unresolved entry for Discontinued, got %+v", res.UnresolvedProducts)
	}
}

func TestResolveProductsMissingProductRowUnresolved(t *testing.T) {
	goneID := uuid.New()
	res := ResolveProducts(
		[]string{"facial"},
		[]model.ServiceProductMapping{mapping("facial", goneID, "10")},
		map[uuid.UUID]model.Product{},
		nil,
	)

	if len(res.UnresolvedProducts) != 1 {
		t.Fatalf("expected 1 unresolved, got %d", len(res.UnresolvedProducts))
	}
	if res.UnresolvedProducts[0].ProductName != "" {
		t.Errorf("vanished product should have empty name, got %q", res.UnresolvedProducts[0].ProductName)
	}
}

func TestResolveProductsDefaultsAddedOncePerOrder(t *testing.T) {
	waxID := uuid.New()
	glovesID := uuid.New()

	res := ResolveProducts(
		[]string{"waxing", "waxing", "waxing"},
		[]model.ServiceProductMapping{mapping("waxing", waxID, "30")},
		map[uuid.UUID]model.Product{waxID: activeProduct(waxID, "Wax")},
		[]model.OrderDefaultProduct{{ProductID: glovesID, Quantity: decimal.NewFromInt(2)}},
	)

	if got := res.Quantities[waxID]; !got.Equal(decimal.RequireFromString("90")) {
		t.Errorf("expected 90 wax, got %s", got)
	}
	if got := res.Quantities[glovesID]; !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("defaults must be order-level, not per-service: got %s", got)
	}
}

func TestResolveProductsDropsNonPositiveTotals(t *testing.T) {
	zeroID := uuid.New()
	res := ResolveProducts(
		[]string{"touchup"},
		[]model.ServiceProductMapping{mapping("touchup", zeroID, "0")},
		map[uuid.UUID]model.Product{zeroID: activeProduct(zeroID, "Spray")},
		nil,
	)

	if len(res.Quantities) != 0 {
		t.Errorf("zero quantity must be dropped, got %v", res.Quantities)
	}
}

func TestResolveProductsSkipsBlankNames(t *testing.T) {
	res := ResolveProducts([]string{"  ", ""}, nil, nil, nil)
	if len(res.Quantities) != 0 || len(res.UnmappedServices) != 0 {
		t.Errorf("blank names should be ignored, got %+v", res)
	}
}

func TestNormalizeServiceName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Full Body Wax", "full body wax"},
		{"  Massage  ", "massage"},
		{"FACIAL", "facial"},
	}
	for _, c := range cases {
		if got := NormalizeServiceName(c.in); got != c.want {
			t.Errorf("NormalizeServiceName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
