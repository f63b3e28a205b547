package service

import (
	"strings"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnresolvedProduct records a mapping whose product is missing or inactive
type UnresolvedProduct struct {
	ServiceName string
	ProductID   uuid.UUID
	ProductName string // empty when the product row is gone entirely
}

// Resolution is the outcome of resolving an order's services into product
// quantities. Gaps are collected, never fatal: one unmapped service must not
// block deduction for the rest.
type Resolution struct {
	Quantities         map[uuid.UUID]decimal.Decimal
	UnmappedServices   []string
	UnresolvedProducts []UnresolvedProduct
}

// NormalizeServiceName folds a raw service name to its mapping key
func NormalizeServiceName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveProducts maps the performed services plus the order-level defaults
// to total required product quantities. Pure function of its inputs.
//
// A service requested twice doubles its product need, so occurrences are
// counted per distinct normalized name. Default products are added once per
// order, independent of service count. Totals that end up zero or negative
// are dropped (never post a zero consumption row).
func ResolveProducts(
	serviceNames []string,
	mappings []model.ServiceProductMapping,
	products map[uuid.UUID]model.Product,
	defaults []model.OrderDefaultProduct,
) Resolution {
	res := Resolution{
		Quantities: make(map[uuid.UUID]decimal.Decimal),
	}

	occurrences := make(map[string]int64)
	var distinct []string
	for _, raw := range serviceNames {
		name := NormalizeServiceName(raw)
		if name == "" {
			continue
		}
		if occurrences[name] == 0 {
			distinct = append(distinct, name)
		}
		occurrences[name]++
	}

	byService := make(map[string][]model.ServiceProductMapping)
	for _, m := range mappings {
		byService[m.ServiceName] = append(byService[m.ServiceName], m)
	}

	for _, name := range distinct {
		serviceMappings, ok := byService[name]
		if !ok || len(serviceMappings) == 0 {
			res.UnmappedServices = append(res.UnmappedServices, name)
			continue
		}

		count := decimal.NewFromInt(occurrences[name])
		for _, m := range serviceMappings {
			product, found := products[m.ProductID]
			if !found || !product.IsActive {
				res.UnresolvedProducts = append(res.UnresolvedProducts, UnresolvedProduct{
					ServiceName: name,
					ProductID:   m.ProductID,
					ProductName: product.Name,
				})
				continue
			}
			res.Quantities[m.ProductID] = res.Quantities[m.ProductID].Add(m.QuantityRequired.Mul(count))
		}
	}

	for _, def := range defaults {
		res.Quantities[def.ProductID] = res.Quantities[def.ProductID].Add(def.Quantity)
	}

	for id, qty := range res.Quantities {
		if qty.LessThanOrEqual(decimal.Zero) {
			delete(res.Quantities, id)
		}
	}

	return res
}
