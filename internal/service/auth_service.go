package service

import (
	"encoding/json"
	"errors"
	"time"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"
	"go-dispatch-ws/internal/ws"
	"go-dispatch-ws/pkg/jwt"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrEmployeeInactive   = errors.New("employee account is inactive")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ValidateToken(tokenString string) (*model.EmployeeResponse, error)
	Heartbeat(employeeID uuid.UUID) error
}

type LoginResponse struct {
	Token    string                 `json:"token"`
	Employee model.EmployeeResponse `json:"employee"`
}

type authService struct {
	employeeRepo repository.EmployeeRepository
	wsHub        *ws.Hub
}

func NewAuthService(employeeRepo repository.EmployeeRepository, hub *ws.Hub) AuthService {
	return &authService{
		employeeRepo: employeeRepo,
		wsHub:        hub,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	employee, err := s.employeeRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !employee.IsActive {
		return nil, ErrEmployeeInactive
	}
	if !employee.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(employee.ID, employee.Email, employee.FullName, employee.Role)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token:    token,
		Employee: employee.ToResponse(),
	}, nil
}

func (s *authService) ValidateToken(tokenString string) (*model.EmployeeResponse, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	employee, err := s.employeeRepo.FindByID(claims.EmployeeID)
	if err != nil {
		return nil, ErrEmployeeNotFound
	}
	if !employee.IsActive {
		return nil, ErrEmployeeInactive
	}

	resp := employee.ToResponse()
	return &resp, nil
}

func (s *authService) Heartbeat(employeeID uuid.UUID) error {
	if err := s.employeeRepo.UpdateLastSeen(employeeID); err != nil {
		return err
	}

	if s.wsHub != nil {
		go func() {
			payload := map[string]interface{}{
				"type":         "presence_update",
				"employee_id":  employeeID.String(),
				"status":       "online",
				"last_seen_at": time.Now(),
			}
			msg, _ := json.Marshal(payload)
			s.wsHub.Broadcast <- msg
		}()
	}

	return nil
}
