package repository

import (
	"errors"

	"go-dispatch-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockSummaryRow is the per-product aggregate for the admin summary view.
// StockLeft is computed in the service layer as purchased - used.
type StockSummaryRow struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	TotalPurchased    decimal.Decimal `json:"total_purchased"`
	TotalUsed         decimal.Decimal `json:"total_used"`
}

// LedgerRepository is the append-only stock ledger. Purchases credit,
// consumptions debit; every writer only appends, so concurrent
// auto-deduction, request approvals and sheet imports never race on a
// mutable counter.
type LedgerRepository interface {
	// InsertPurchase appends a credit, ignoring conflicts on the
	// (product_id, invoice_number) key. Returns false when a concurrent
	// writer already landed the same invoice.
	InsertPurchase(purchase *model.ProductPurchase) (bool, error)
	FindPurchaseByInvoice(productID uuid.UUID, invoiceNumber string) (*model.ProductPurchase, error)
	FindPurchaseByFields(purchase *model.ProductPurchase) (*model.ProductPurchase, error)

	InsertConsumptions(rows []model.ProductConsumption) error
	HasConsumptionForOrder(orderID uuid.UUID, externalOrderID string) (bool, error)
	FindConsumptionsForOrder(orderID uuid.UUID) ([]model.ProductConsumption, error)

	StockLeft(productID uuid.UUID) (decimal.Decimal, error)
	StockSummary() ([]StockSummaryRow, error)
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

// InsertPurchase mirrors the consumption insert: the duplicate-invoice race
// loses silently and the caller re-reads the winner's row. Invoice-less rows
// never conflict (NULLs are distinct), those are deduplicated by field
// equality before insert instead.
func (r *ledgerRepo) InsertPurchase(purchase *model.ProductPurchase) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "invoice_number"}},
		DoNothing: true,
	}).Create(purchase)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ledgerRepo) FindPurchaseByInvoice(productID uuid.UUID, invoiceNumber string) (*model.ProductPurchase, error) {
	var purchase model.ProductPurchase
	err := r.db.First(&purchase, "product_id = ? AND invoice_number = ?", productID, invoiceNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindPurchaseByFields matches on full equality for invoice-less purchases
// so repeated sync runs do not re-insert the same row.
func (r *ledgerRepo) FindPurchaseByFields(purchase *model.ProductPurchase) (*model.ProductPurchase, error) {
	var existing model.ProductPurchase
	q := r.db.Where(
		"product_id = ? AND quantity = ? AND purchase_date = ? AND vendor_name = ? AND invoice_number IS NULL",
		purchase.ProductID, purchase.Quantity, purchase.PurchaseDate, purchase.VendorName,
	)
	if purchase.PurchasedBy != nil {
		q = q.Where("purchased_by = ?", *purchase.PurchasedBy)
	} else {
		q = q.Where("purchased_by IS NULL")
	}
	err := q.First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// InsertConsumptions bulk-inserts, silently ignoring conflicts on the
// (order_id, product_id) key. A concurrent duplicate completion trigger
// loses the race row-by-row and leaves exactly one row set behind.
func (r *ledgerRepo) InsertConsumptions(rows []model.ProductConsumption) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(&rows).Error
}

func (r *ledgerRepo) HasConsumptionForOrder(orderID uuid.UUID, externalOrderID string) (bool, error) {
	var count int64
	q := r.db.Model(&model.ProductConsumption{})
	if externalOrderID != "" {
		// Guard against the same logical order existing under two internal
		// ids from duplicate imports.
		q = q.Where("order_id = ? OR external_order_id = ?", orderID, externalOrderID)
	} else {
		q = q.Where("order_id = ?", orderID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ledgerRepo) FindConsumptionsForOrder(orderID uuid.UUID) ([]model.ProductConsumption, error) {
	var rows []model.ProductConsumption
	err := r.db.Where("order_id = ?", orderID).Find(&rows).Error
	return rows, err
}

// StockLeft is always a live aggregate, never a cached counter.
func (r *ledgerRepo) StockLeft(productID uuid.UUID) (decimal.Decimal, error) {
	var purchased, used decimal.Decimal

	err := r.db.Model(&model.ProductPurchase{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&purchased).Error
	if err != nil {
		return decimal.Zero, err
	}

	err = r.db.Model(&model.ProductConsumption{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_used), 0)").
		Scan(&used).Error
	if err != nil {
		return decimal.Zero, err
	}

	return purchased.Sub(used), nil
}

func (r *ledgerRepo) StockSummary() ([]StockSummaryRow, error) {
	var rows []StockSummaryRow
	err := r.db.Raw(`
		SELECT p.id AS product_id, p.name, p.unit, p.low_stock_threshold,
			COALESCE(pur.total, 0) AS total_purchased,
			COALESCE(con.total, 0) AS total_used
		FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(quantity) AS total
			FROM product_purchases WHERE deleted_at IS NULL GROUP BY product_id
		) pur ON pur.product_id = p.id
		LEFT JOIN (
			SELECT product_id, SUM(quantity_used) AS total
			FROM product_consumptions WHERE deleted_at IS NULL GROUP BY product_id
		) con ON con.product_id = p.id
		WHERE p.is_active = true AND p.deleted_at IS NULL
		ORDER BY p.name ASC
	`).Scan(&rows).Error
	return rows, err
}
