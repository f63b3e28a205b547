package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"
	"go-dispatch-ws/internal/ws"
	"go-dispatch-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidAction = errors.New("invalid shift action")
)

type CreateEmployeeRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role" validate:"required,oneof=employee admin"`
}

type EmployeeService interface {
	Create(req *CreateEmployeeRequest, createdBy string) (*model.Employee, error)
	GetAll() ([]model.EmployeeResponse, error)
	GetByID(id uuid.UUID) (*model.EmployeeResponse, error)
	Update(id uuid.UUID, req *model.Employee, updatedBy string) (*model.Employee, error)
	Delete(id uuid.UUID, deletedBy string) error
	// ToggleShift flips the on-shift flag and appends an attendance row.
	// The client-side tracker consumes the flag: off shift with no active
	// job means tracking is suspended entirely.
	ToggleShift(id uuid.UUID, action string) (*model.Employee, error)
}

type employeeService struct {
	employeeRepo repository.EmployeeRepository
	wsHub        *ws.Hub
}

func NewEmployeeService(employeeRepo repository.EmployeeRepository, hub *ws.Hub) EmployeeService {
	return &employeeService{
		employeeRepo: employeeRepo,
		wsHub:        hub,
	}
}

func (s *employeeService) Create(req *CreateEmployeeRequest, createdBy string) (*model.Employee, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	existing, err := s.employeeRepo.FindByEmail(req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != uuid.Nil {
		return nil, ErrEmailTaken
	}

	employee := &model.Employee{
		Email:       req.Email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		IsActive:    true,
	}
	employee.CreatedBy = createdBy
	employee.UpdatedBy = createdBy
	if err := employee.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.employeeRepo.Create(employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) GetAll() ([]model.EmployeeResponse, error) {
	employees, err := s.employeeRepo.FindAll()
	if err != nil {
		return nil, err
	}
	responses := make([]model.EmployeeResponse, len(employees))
	for i, e := range employees {
		responses[i] = e.ToResponse()
	}
	return responses, nil
}

func (s *employeeService) GetByID(id uuid.UUID) (*model.EmployeeResponse, error) {
	employee, err := s.employeeRepo.FindByID(id)
	if err != nil {
		return nil, ErrEmployeeNotFound
	}
	resp := employee.ToResponse()
	return &resp, nil
}

func (s *employeeService) Update(id uuid.UUID, req *model.Employee, updatedBy string) (*model.Employee, error) {
	existing, err := s.employeeRepo.FindByID(id)
	if err != nil {
		return nil, ErrEmployeeNotFound
	}

	existing.FullName = req.FullName
	existing.PhoneNumber = req.PhoneNumber
	existing.IsActive = req.IsActive
	if req.Role != "" {
		existing.Role = req.Role
	}
	existing.UpdatedBy = updatedBy

	if err := s.employeeRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *employeeService) Delete(id uuid.UUID, deletedBy string) error {
	if _, err := s.employeeRepo.FindByID(id); err != nil {
		return ErrEmployeeNotFound
	}
	return s.employeeRepo.Delete(id, deletedBy)
}

func (s *employeeService) ToggleShift(id uuid.UUID, action string) (*model.Employee, error) {
	if action != model.AttendanceStartShift && action != model.AttendanceEndShift {
		return nil, ErrInvalidAction
	}

	employee, err := s.employeeRepo.FindByID(id)
	if err != nil {
		return nil, ErrEmployeeNotFound
	}

	onShift := action == model.AttendanceStartShift
	if err := s.employeeRepo.SetShift(id, onShift); err != nil {
		return nil, err
	}
	employee.IsOnShift = onShift

	entry := &model.Attendance{
		EmployeeID: id,
		Action:     action,
		Timestamp:  time.Now(),
	}
	entry.CreatedBy = id.String()
	if err := s.employeeRepo.LogAttendance(entry); err != nil {
		return nil, err
	}

	if s.wsHub != nil {
		go func() {
			payload := map[string]interface{}{
				"type":        "shift_update",
				"employee_id": id.String(),
				"is_on_shift": onShift,
			}
			msg, _ := json.Marshal(payload)
			s.wsHub.Broadcast <- msg
		}()
	}

	return employee, nil
}
