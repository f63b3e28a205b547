package repository

import (
	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByName(name string) (*model.Product, error)
	FindByIDs(ids []uuid.UUID) (map[uuid.UUID]model.Product, error)
	Update(product *model.Product) error

	MappingsForServices(serviceNames []string) ([]model.ServiceProductMapping, error)
	UpsertMapping(mapping *model.ServiceProductMapping) error
	FindDefaults() ([]model.OrderDefaultProduct, error)
	UpsertDefault(def *model.OrderDefaultProduct) error

	LogMissing(entry *model.MissingProductLog) error
	FindMissingLogs() ([]model.MissingProductLog, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "id = ?", id).Error
	return &product, err
}

// FindByName looks up by name case-insensitively; name uniqueness is
// enforced through this lookup before insert.
func (r *productRepo) FindByName(name string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "LOWER(name) = LOWER(?)", name).Error
	return &product, err
}

func (r *productRepo) FindByIDs(ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	result := make(map[uuid.UUID]model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var products []model.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) MappingsForServices(serviceNames []string) ([]model.ServiceProductMapping, error) {
	var mappings []model.ServiceProductMapping
	if len(serviceNames) == 0 {
		return mappings, nil
	}
	err := r.db.Where("service_name IN ?", serviceNames).Find(&mappings).Error
	return mappings, err
}

// UpsertMapping keeps sheet re-syncs idempotent: the (service_name,
// product_id) pair is the identity, quantity is refreshed in place.
func (r *productRepo) UpsertMapping(mapping *model.ServiceProductMapping) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_name"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity_required", "updated_at"}),
	}).Create(mapping).Error
}

func (r *productRepo) FindDefaults() ([]model.OrderDefaultProduct, error) {
	var defaults []model.OrderDefaultProduct
	err := r.db.Find(&defaults).Error
	return defaults, err
}

func (r *productRepo) UpsertDefault(def *model.OrderDefaultProduct) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(def).Error
}

func (r *productRepo) LogMissing(entry *model.MissingProductLog) error {
	return r.db.Create(entry).Error
}

func (r *productRepo) FindMissingLogs() ([]model.MissingProductLog, error) {
	var logs []model.MissingProductLog
	err := r.db.Order("created_at DESC").Find(&logs).Error
	return logs, err
}
