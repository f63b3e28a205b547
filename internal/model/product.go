package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a consumable stock item. Never hard-deleted; deactivation is
// the soft path so historical ledger rows keep a valid reference.
// Name is unique case-insensitively (lookups go through LOWER(name)).
type Product struct {
	BaseModel
	Name              string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Unit              string          `gorm:"type:varchar(20)" json:"unit" validate:"required"`
	CostPerUnit       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_per_unit"`
	LowStockThreshold decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"low_stock_threshold"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
}

// ServiceProductMapping links a named service to one product it consumes.
// Many-to-many: a service may need several products, a product may serve
// several services. ServiceName is stored lowercase.
type ServiceProductMapping struct {
	BaseModel
	ServiceName      string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_service_product" json:"service_name" validate:"required"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_service_product" json:"product_id" validate:"uuid_required"`
	Product          *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	QuantityRequired decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_required"`
}

// OrderDefaultProduct is consumed once on every completed order regardless
// of the services performed (disposables etc).
type OrderDefaultProduct struct {
	BaseModel
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"product_id" validate:"uuid_required"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
}

// MissingProductLog is the append-only audit trail of resolution gaps found
// while deducting inventory for a completed order. It never drives behavior.
type MissingProductLog struct {
	BaseModel
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ExternalOrderID string    `gorm:"type:varchar(100)" json:"external_order_id,omitempty"`
	ServiceName     string    `gorm:"type:varchar(255);not null" json:"service_name"`
	ProductName     string    `gorm:"type:varchar(255)" json:"product_name,omitempty"`
}
