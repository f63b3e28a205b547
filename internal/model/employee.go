package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role codes as constants
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// Employee represents a field worker (beautician) or an admin dispatcher
type Employee struct {
	BaseModel
	Email       string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password    string `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName    string `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	PhoneNumber string `gorm:"type:varchar(20)" json:"phone_number"`
	Role        string `gorm:"type:varchar(20);default:'employee'" json:"role" validate:"required,oneof=employee admin"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Shift state. Tracking is suspended while off shift.
	IsOnShift bool `gorm:"default:false" json:"is_on_shift"`

	// Denormalized latest position for O(1) dispatch lookups.
	// The authoritative trail lives in live_tracking_points.
	CurrentLatitude  *float64   `json:"current_latitude,omitempty"`
	CurrentLongitude *float64   `json:"current_longitude,omitempty"`
	LastLocationAt   *time.Time `json:"last_location_at,omitempty"`

	LastSeenAt *time.Time `json:"last_seen_at,omitempty"` // For presence
}

// SetPassword hashes and sets the employee's password
func (e *Employee) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	e.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (e *Employee) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(e.Password), []byte(password))
	return err == nil
}

// IsAdmin reports whether the employee may perform admin-only operations
func (e *Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}

// EmployeeResponse is used for API responses (without sensitive data)
type EmployeeResponse struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	PhoneNumber      string     `json:"phone_number"`
	Role             string     `json:"role"`
	IsActive         bool       `json:"is_active"`
	IsOnShift        bool       `json:"is_on_shift"`
	CurrentLatitude  *float64   `json:"current_latitude,omitempty"`
	CurrentLongitude *float64   `json:"current_longitude,omitempty"`
	LastLocationAt   *time.Time `json:"last_location_at,omitempty"`
	LastSeenAt       *time.Time `json:"last_seen_at,omitempty"`
}

// ToResponse converts Employee to EmployeeResponse
func (e *Employee) ToResponse() EmployeeResponse {
	return EmployeeResponse{
		ID:               e.ID,
		Email:            e.Email,
		FullName:         e.FullName,
		PhoneNumber:      e.PhoneNumber,
		Role:             e.Role,
		IsActive:         e.IsActive,
		IsOnShift:        e.IsOnShift,
		CurrentLatitude:  e.CurrentLatitude,
		CurrentLongitude: e.CurrentLongitude,
		LastLocationAt:   e.LastLocationAt,
		LastSeenAt:       e.LastSeenAt,
	}
}

// Attendance is an append-only log of shift start/end actions
type Attendance struct {
	BaseModel
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Action     string    `gorm:"type:varchar(20);not null" json:"action"` // start_shift, end_shift
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
}

const (
	AttendanceStartShift = "start_shift"
	AttendanceEndShift   = "end_shift"
)
