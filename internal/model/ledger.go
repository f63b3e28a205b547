package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductPurchase is a ledger credit. Append-only: current stock is always
// derived as purchased minus consumed, never stored as a mutable counter.
//
// (product_id, invoice_number) is unique when an invoice is present, which
// is what makes replayed sheet imports and duplicate approval calls safe.
// Postgres treats NULLs as distinct, so invoice-less rows never conflict;
// those are deduplicated by field equality before insert instead.
type ProductPurchase struct {
	BaseModel
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_purchase_invoice" json:"product_id" validate:"uuid_required"`
	Product       *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	PurchaseDate  time.Time       `gorm:"type:date;not null" json:"purchase_date"`
	VendorName    string          `gorm:"type:varchar(255)" json:"vendor_name,omitempty"`
	InvoiceNumber *string         `gorm:"type:varchar(100);uniqueIndex:idx_purchase_invoice" json:"invoice_number,omitempty"`
	PurchasedBy   *uuid.UUID      `gorm:"type:uuid" json:"purchased_by,omitempty"`
}

// ProductConsumption is a ledger debit attributed to a completed order.
//
// The (order_id, product_id) uniqueness constraint is the idempotency key
// for auto-deduction: duplicate completion triggers insert with
// ON CONFLICT DO NOTHING and collapse to a single row set.
type ProductConsumption struct {
	BaseModel
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_product" json:"order_id"`
	ExternalOrderID string          `gorm:"type:varchar(100);index" json:"external_order_id,omitempty"`
	BeauticianID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"beautician_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_product" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	QuantityUsed    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_used"`
	AutoGenerated   bool            `gorm:"default:false" json:"auto_generated"`
}
