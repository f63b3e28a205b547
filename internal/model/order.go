package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderExpired    OrderStatus = "expired"
)

// ServiceItem is one named service on an order
type ServiceItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// ServiceList is stored as a jsonb column
type ServiceList []ServiceItem

func (s ServiceList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *ServiceList) Scan(value interface{}) error {
	if value == nil {
		*s = ServiceList{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("unsupported type for ServiceList")
	}
	return json.Unmarshal(b, s)
}

// Order is a scheduled service appointment. Cancelled orders are never
// mutated back to active; reallocation clones them instead so the audit
// trail survives.
type Order struct {
	BaseModel
	CustomerName string   `gorm:"type:varchar(255);not null" json:"customer_name" validate:"required"`
	Phone        string   `gorm:"type:varchar(20);not null" json:"phone" validate:"required"`
	Address      string   `gorm:"type:text;not null" json:"address" validate:"required"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`

	Services        ServiceList `gorm:"type:jsonb;not null" json:"services"`
	Amount          int64       `gorm:"not null" json:"amount"`
	Duration        int         `gorm:"not null" json:"duration"` // minutes
	AppointmentTime time.Time   `gorm:"not null;index" json:"appointment_time"`
	PaymentMode     string      `gorm:"type:varchar(20)" json:"payment_mode"`

	Status OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Flagged when a field issue is reported against this order
	HasIssue bool `gorm:"default:false" json:"has_issue"`

	// Normalized cancellation reason code when status is cancelled/expired
	AcceptanceStatus string `gorm:"type:varchar(50)" json:"acceptance_status,omitempty"`

	EmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"employee_id,omitempty"`
	Employee   *Employee  `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	// External sheet-row identity for imported orders; duplicate imports of
	// the same logical order carry the same external id.
	ExternalOrderID string `gorm:"type:varchar(100);index" json:"external_order_id,omitempty"`

	// Set on the fresh order created by reallocation, pointing back to the
	// original cancelled order.
	ReferenceOrderID *uuid.UUID `gorm:"type:uuid" json:"reference_order_id,omitempty"`
}

// ServiceNames returns the raw service names in order
func (o *Order) ServiceNames() []string {
	names := make([]string, len(o.Services))
	for i, s := range o.Services {
		names[i] = s.Name
	}
	return names
}
