package model

import (
	"time"

	"github.com/google/uuid"
)

type IssueStatus string

const (
	IssueOpen     IssueStatus = "open"
	IssueResolved IssueStatus = "resolved"
)

// Issue is a problem reported from the field ("Cab Not Available", customer
// dispute, supply shortage). Resolution is a single open -> resolved
// transition by an admin; the report itself is never edited.
type Issue struct {
	BaseModel
	BeauticianID uuid.UUID  `gorm:"type:uuid;not null;index" json:"beautician_id"`
	Beautician   *Employee  `gorm:"foreignKey:BeauticianID" json:"beautician,omitempty"`
	OrderID      *uuid.UUID `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Order        *Order     `gorm:"foreignKey:OrderID" json:"order,omitempty"`

	IssueType string `gorm:"type:varchar(100);not null" json:"issue_type" validate:"required"`
	Notes     string `gorm:"type:text" json:"notes,omitempty"`

	// Where the worker was when reporting, when the client had a fix
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Status     IssueStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	ReportedAt time.Time   `gorm:"not null" json:"reported_at"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
	ResolvedBy *uuid.UUID  `gorm:"type:uuid" json:"resolved_by,omitempty"`
}

// Resolved reports whether the issue has been closed
func (i *Issue) Resolved() bool {
	return i.Status == IssueResolved
}
