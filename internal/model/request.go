package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestPending           RequestStatus = "pending"
	RequestApproved          RequestStatus = "approved"
	RequestPartiallyApproved RequestStatus = "partially_approved"
	RequestRejected          RequestStatus = "rejected"
)

// ProductRequest is a worker-initiated low-stock request. Lifecycle is a
// single transition: pending -> {approved | partially_approved | rejected},
// set exactly once by an admin. Approval with quantity > 0 posts an
// "Internal Transfer" purchase into the ledger.
type ProductRequest struct {
	BaseModel
	BeauticianID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"beautician_id" validate:"uuid_required"`
	Beautician        *Employee        `gorm:"foreignKey:BeauticianID" json:"beautician,omitempty"`
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id" validate:"uuid_required"`
	Product           *Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	QuantityRequested decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"quantity_requested"`
	QuantityApproved  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"quantity_approved,omitempty"`
	Status            RequestStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RequestedAt       time.Time        `gorm:"not null" json:"requested_at"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
	ApprovedBy        *uuid.UUID       `gorm:"type:uuid" json:"approved_by,omitempty"`
}

// Decided reports whether the request has reached a terminal status
func (r *ProductRequest) Decided() bool {
	return r.Status != RequestPending
}
