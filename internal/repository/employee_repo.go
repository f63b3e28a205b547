package repository

import (
	"time"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(employee *model.Employee) error
	FindAll() ([]model.Employee, error)
	FindByID(id uuid.UUID) (*model.Employee, error)
	FindByEmail(email string) (*model.Employee, error)
	Update(employee *model.Employee) error
	Delete(id uuid.UUID, deletedBy string) error
	SetShift(id uuid.UUID, onShift bool) error
	LogAttendance(entry *model.Attendance) error
	UpdateLastSeen(id uuid.UUID) error
}

type employeeRepo struct {
	db *gorm.DB
}

func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db}
}

func (r *employeeRepo) Create(employee *model.Employee) error {
	return r.db.Create(employee).Error
}

func (r *employeeRepo) FindAll() ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.Order("full_name ASC").Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) FindByID(id uuid.UUID) (*model.Employee, error) {
	var employee model.Employee
	err := r.db.First(&employee, "id = ?", id).Error
	return &employee, err
}

func (r *employeeRepo) FindByEmail(email string) (*model.Employee, error) {
	var employee model.Employee
	err := r.db.First(&employee, "LOWER(email) = LOWER(?)", email).Error
	return &employee, err
}

func (r *employeeRepo) Update(employee *model.Employee) error {
	return r.db.Save(employee).Error
}

func (r *employeeRepo) Delete(id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Employee{}).
		Where("id = ?", id).
		Update("updated_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Employee{}, "id = ?", id).Error
}

func (r *employeeRepo) SetShift(id uuid.UUID, onShift bool) error {
	return r.db.Model(&model.Employee{}).
		Where("id = ?", id).
		Update("is_on_shift", onShift).Error
}

func (r *employeeRepo) LogAttendance(entry *model.Attendance) error {
	return r.db.Create(entry).Error
}

func (r *employeeRepo) UpdateLastSeen(id uuid.UUID) error {
	now := time.Now()
	return r.db.Model(&model.Employee{}).
		Where("id = ?", id).
		Update("last_seen_at", now).Error
}
