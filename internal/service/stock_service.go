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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductNameTaken = errors.New("product name already exists")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
)

// PurchaseInput is one ledger credit to record. Vendor and invoice are
// optional; the invoice, when present, is the dedup key.
type PurchaseInput struct {
	ProductID     uuid.UUID
	Quantity      decimal.Decimal
	PurchaseDate  time.Time
	VendorName    string
	InvoiceNumber string
	PurchasedBy   *uuid.UUID
}

// StockSummaryEntry extends the ledger aggregate with the derived stock and
// the low-stock flag for the admin view.
type StockSummaryEntry struct {
	repository.StockSummaryRow
	StockLeft decimal.Decimal `json:"stock_left"`
	LowStock  bool            `json:"low_stock"`
}

type StockService interface {
	CreateProduct(product *model.Product, userID string) error
	UpdateProduct(id uuid.UUID, product *model.Product, userID string) (*model.Product, error)
	GetProducts() ([]model.Product, error)
	// RecordPurchase appends a ledger credit, deduplicating replayed sheet
	// imports and duplicate approval calls. A dedup hit returns the existing
	// row with no side effects.
	RecordPurchase(input PurchaseInput) (*model.ProductPurchase, error)
	StockLeft(productID uuid.UUID) (decimal.Decimal, error)
	GetStockSummary() ([]StockSummaryEntry, error)
	GetMissingProductLogs() ([]model.MissingProductLog, error)
}

type stockService struct {
	productRepo repository.ProductRepository
	ledgerRepo  repository.LedgerRepository
	wsHub       *ws.Hub
}

func NewStockService(productRepo repository.ProductRepository, ledgerRepo repository.LedgerRepository, hub *ws.Hub) StockService {
	return &stockService{
		productRepo: productRepo,
		ledgerRepo:  ledgerRepo,
		wsHub:       hub,
	}
}

func (s *stockService) CreateProduct(product *model.Product, userID string) error {
	if errs := validator.ValidateStruct(product); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// Name uniqueness is case-insensitive
	existing, err := s.productRepo.FindByName(product.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != uuid.Nil {
		return ErrProductNameTaken
	}

	product.CreatedBy = userID
	product.UpdatedBy = userID
	return s.productRepo.Create(product)
}

func (s *stockService) UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error) {
	existing, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	existing.Name = req.Name
	existing.Unit = req.Unit
	existing.CostPerUnit = req.CostPerUnit
	existing.LowStockThreshold = req.LowStockThreshold
	existing.IsActive = req.IsActive
	existing.UpdatedBy = userID

	if err := s.productRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *stockService) GetProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *stockService) RecordPurchase(input PurchaseInput) (*model.ProductPurchase, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidQuantity
	}
	if _, err := s.productRepo.FindByID(input.ProductID); err != nil {
		return nil, ErrProductNotFound
	}

	purchase := &model.ProductPurchase{
		ProductID:    input.ProductID,
		Quantity:     input.Quantity,
		PurchaseDate: input.PurchaseDate,
		VendorName:   input.VendorName,
		PurchasedBy:  input.PurchasedBy,
	}
	if input.InvoiceNumber != "" {
		purchase.InvoiceNumber = &input.InvoiceNumber
	}

	// Dedup before insert; the unique (product_id, invoice_number) index is
	// the backstop for a concurrent duplicate.
	if purchase.InvoiceNumber != nil {
		existing, err := s.ledgerRepo.FindPurchaseByInvoice(input.ProductID, input.InvoiceNumber)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	} else {
		existing, err := s.ledgerRepo.FindPurchaseByFields(purchase)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	inserted, err := s.ledgerRepo.InsertPurchase(purchase)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost the race inside the dedup window; the winner's row is the
		// result, same as a pre-check hit.
		existing, err := s.ledgerRepo.FindPurchaseByInvoice(input.ProductID, input.InvoiceNumber)
		if err != nil {
			return nil, err
		}
		return existing, nil
	}

	s.broadcastPurchase(purchase)
	return purchase, nil
}

func (s *stockService) StockLeft(productID uuid.UUID) (decimal.Decimal, error) {
	return s.ledgerRepo.StockLeft(productID)
}

func (s *stockService) GetStockSummary() ([]StockSummaryEntry, error) {
	rows, err := s.ledgerRepo.StockSummary()
	if err != nil {
		return nil, err
	}

	entries := make([]StockSummaryEntry, 0, len(rows))
	for _, row := range rows {
		left := row.TotalPurchased.Sub(row.TotalUsed)
		entries = append(entries, StockSummaryEntry{
			StockSummaryRow: row,
			StockLeft:       left,
			LowStock:        left.LessThanOrEqual(row.LowStockThreshold),
		})
	}
	return entries, nil
}

func (s *stockService) GetMissingProductLogs() ([]model.MissingProductLog, error) {
	return s.productRepo.FindMissingLogs()
}

func (s *stockService) broadcastPurchase(purchase *model.ProductPurchase) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":       "stock_update",
			"action":     "purchase_recorded",
			"product_id": purchase.ProductID,
			"quantity":   purchase.Quantity,
			"vendor":     purchase.VendorName,
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
