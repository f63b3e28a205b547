package service

import (
	"errors"
	"sync"
	"time"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes. The ledger fake honors the same uniqueness
// semantics as the Postgres schema so idempotency paths are exercised for
// real.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) Create(order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) FindByEmployee(employeeID uuid.UUID) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Order
	for _, o := range r.orders {
		if o.EmployeeID != nil && *o.EmployeeID == employeeID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (r *fakeOrderRepo) UpdateStatus(id uuid.UUID, status model.OrderStatus, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	order.UpdatedBy = updatedBy
	return nil
}

func (r *fakeOrderRepo) SetCancellationReason(id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.AcceptanceStatus = reason
	return nil
}

func (r *fakeOrderRepo) FindCancelled() ([]repository.CancelledOrderRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []repository.CancelledOrderRow
	for _, o := range r.orders {
		if o.Status == model.OrderCancelled || o.Status == model.OrderExpired {
			rows = append(rows, repository.CancelledOrderRow{Order: *o})
		}
	}
	return rows, nil
}

func (r *fakeOrderRepo) ExpireStale(before time.Time, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, o := range r.orders {
		if (o.Status == model.OrderPending || o.Status == model.OrderConfirmed) && o.AppointmentTime.Before(before) {
			o.Status = model.OrderExpired
			o.AcceptanceStatus = reason
			count++
		}
	}
	return count, nil
}

func (r *fakeOrderRepo) OverviewStats() (*repository.OverviewStats, error) {
	return &repository.OverviewStats{}, nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
	mappings []model.ServiceProductMapping
	defaults []model.OrderDefaultProduct
	missing  []model.MissingProductLog

	failLogMissing bool
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]model.Product)}
}

func (r *fakeProductRepo) addProduct(name string, active bool) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := model.Product{Name: name, Unit: "ml", IsActive: active}
	p.ID = uuid.New()
	r.products[p.ID] = p
	return p.ID
}

func (r *fakeProductRepo) addMapping(serviceName string, productID uuid.UUID, qty string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings = append(r.mappings, model.ServiceProductMapping{
		ServiceName:      serviceName,
		ProductID:        productID,
		QuantityRequired: decimal.RequireFromString(qty),
	})
}

func (r *fakeProductRepo) addDefault(productID uuid.UUID, qty string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = append(r.defaults, model.OrderDefaultProduct{
		ProductID: productID,
		Quantity:  decimal.RequireFromString(qty),
	})
}

func (r *fakeProductRepo) Create(product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) FindAll() ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Product
	for _, p := range r.products {
		result = append(result, p)
	}
	return result, nil
}

func (r *fakeProductRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindByName(name string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if NormalizeServiceName(p.Name) == NormalizeServiceName(name) {
			cp := p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindByIDs(ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[uuid.UUID]model.Product)
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (r *fakeProductRepo) Update(product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) MappingsForServices(serviceNames []string) ([]model.ServiceProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make(map[string]bool, len(serviceNames))
	for _, n := range serviceNames {
		names[n] = true
	}
	var result []model.ServiceProductMapping
	for _, m := range r.mappings {
		if names[m.ServiceName] {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeProductRepo) UpsertMapping(mapping *model.ServiceProductMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.mappings {
		if m.ServiceName == mapping.ServiceName && m.ProductID == mapping.ProductID {
			r.mappings[i].QuantityRequired = mapping.QuantityRequired
			return nil
		}
	}
	r.mappings = append(r.mappings, *mapping)
	return nil
}

func (r *fakeProductRepo) FindDefaults() ([]model.OrderDefaultProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.OrderDefaultProduct(nil), r.defaults...), nil
}

func (r *fakeProductRepo) UpsertDefault(def *model.OrderDefaultProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.defaults {
		if d.ProductID == def.ProductID {
			r.defaults[i].Quantity = def.Quantity
			return nil
		}
	}
	r.defaults = append(r.defaults, *def)
	return nil
}

func (r *fakeProductRepo) LogMissing(entry *model.MissingProductLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLogMissing {
		return errors.New("log write failed")
	}
	r.missing = append(r.missing, *entry)
	return nil
}

func (r *fakeProductRepo) FindMissingLogs() ([]model.MissingProductLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.MissingProductLog(nil), r.missing...), nil
}

type fakeLedgerRepo struct {
	mu           sync.Mutex
	purchases    []model.ProductPurchase
	consumptions []model.ProductConsumption
	summaryRows  []repository.StockSummaryRow

	// when > 0, that many FindPurchaseByInvoice calls return nothing,
	// simulating writers inside the check-then-insert race window
	invoiceLookupMisses int
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{}
}

// InsertPurchase mirrors ON CONFLICT (product_id, invoice_number) DO NOTHING
func (r *fakeLedgerRepo) InsertPurchase(purchase *model.ProductPurchase) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if purchase.InvoiceNumber != nil {
		for _, p := range r.purchases {
			if p.ProductID == purchase.ProductID && p.InvoiceNumber != nil && *p.InvoiceNumber == *purchase.InvoiceNumber {
				return false, nil
			}
		}
	}
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	r.purchases = append(r.purchases, *purchase)
	return true, nil
}

func (r *fakeLedgerRepo) FindPurchaseByInvoice(productID uuid.UUID, invoiceNumber string) (*model.ProductPurchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.invoiceLookupMisses > 0 {
		r.invoiceLookupMisses--
		return nil, nil
	}
	for _, p := range r.purchases {
		if p.ProductID == productID && p.InvoiceNumber != nil && *p.InvoiceNumber == invoiceNumber {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) FindPurchaseByFields(purchase *model.ProductPurchase) (*model.ProductPurchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.InvoiceNumber != nil {
			continue
		}
		if p.ProductID == purchase.ProductID &&
			p.Quantity.Equal(purchase.Quantity) &&
			p.PurchaseDate.Equal(purchase.PurchaseDate) &&
			p.VendorName == purchase.VendorName {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

// InsertConsumptions mirrors ON CONFLICT (order_id, product_id) DO NOTHING
func (r *fakeLedgerRepo) InsertConsumptions(rows []model.ProductConsumption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		duplicate := false
		for _, existing := range r.consumptions {
			if existing.OrderID == row.OrderID && existing.ProductID == row.ProductID {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		r.consumptions = append(r.consumptions, row)
	}
	return nil
}

func (r *fakeLedgerRepo) HasConsumptionForOrder(orderID uuid.UUID, externalOrderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.consumptions {
		if c.OrderID == orderID {
			return true, nil
		}
		if externalOrderID != "" && c.ExternalOrderID == externalOrderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedgerRepo) FindConsumptionsForOrder(orderID uuid.UUID) ([]model.ProductConsumption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.ProductConsumption
	for _, c := range r.consumptions {
		if c.OrderID == orderID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *fakeLedgerRepo) StockLeft(productID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.purchases {
		if p.ProductID == productID {
			total = total.Add(p.Quantity)
		}
	}
	for _, c := range r.consumptions {
		if c.ProductID == productID {
			total = total.Sub(c.QuantityUsed)
		}
	}
	return total, nil
}

func (r *fakeLedgerRepo) StockSummary() ([]repository.StockSummaryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]repository.StockSummaryRow(nil), r.summaryRows...), nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.ProductRequest

	// invoked just before MarkDecided applies, to simulate a racing admin
	beforeMarkDecided func()
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*model.ProductRequest)}
}

func (r *fakeRequestRepo) Create(request *model.ProductRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	cp := *request
	r.requests[request.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) FindByID(id uuid.UUID) (*model.ProductRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *request
	return &cp, nil
}

func (r *fakeRequestRepo) FindByStatus(status model.RequestStatus) ([]model.ProductRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.ProductRequest
	for _, req := range r.requests {
		if req.Status == status {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (r *fakeRequestRepo) FindAll() ([]model.ProductRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.ProductRequest
	for _, req := range r.requests {
		result = append(result, *req)
	}
	return result, nil
}

func (r *fakeRequestRepo) CountPending() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, req := range r.requests {
		if req.Status == model.RequestPending {
			count++
		}
	}
	return count, nil
}

func (r *fakeRequestRepo) MarkDecided(id uuid.UUID, status model.RequestStatus, quantityApproved decimal.Decimal, approvedBy uuid.UUID, approvedAt time.Time) (int64, error) {
	if r.beforeMarkDecided != nil {
		r.beforeMarkDecided()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok || request.Status != model.RequestPending {
		return 0, nil
	}
	request.Status = status
	request.QuantityApproved = &quantityApproved
	request.ApprovedBy = &approvedBy
	request.ApprovedAt = &approvedAt
	return 1, nil
}

type fakeTrackingRepo struct {
	mu     sync.Mutex
	points []model.LiveTrackingPoint
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{}
}

func (r *fakeTrackingRepo) Append(point *model.LiveTrackingPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if point.ID == uuid.Nil {
		point.ID = uuid.New()
	}
	r.points = append(r.points, *point)
	return nil
}

func (r *fakeTrackingRepo) Latest(beauticianID uuid.UUID) (*model.LiveTrackingPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.LiveTrackingPoint
	for i := range r.points {
		p := r.points[i]
		if p.BeauticianID != beauticianID {
			continue
		}
		if latest == nil || p.Timestamp.After(latest.Timestamp) {
			cp := p
			latest = &cp
		}
	}
	return latest, nil
}

func (r *fakeTrackingRepo) History(beauticianID uuid.UUID, since *time.Time) ([]model.LiveTrackingPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.LiveTrackingPoint
	for _, p := range r.points {
		if p.BeauticianID != beauticianID {
			continue
		}
		if since != nil && p.Timestamp.Before(*since) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (r *fakeTrackingRepo) HistoryForOrder(orderID uuid.UUID) ([]model.LiveTrackingPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.LiveTrackingPoint
	for _, p := range r.points {
		if p.OrderID != nil && *p.OrderID == orderID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakeTrackingRepo) CleanupOlderThan(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []model.LiveTrackingPoint
	var removed int64
	for _, p := range r.points {
		if p.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	r.points = kept
	return removed, nil
}

func (r *fakeTrackingRepo) Board() ([]repository.TrackingBoardRow, error) {
	return nil, nil
}

type fakeIssueRepo struct {
	mu     sync.Mutex
	issues map[uuid.UUID]*model.Issue

	// orders flagged with an active field issue via Create
	flaggedOrders map[uuid.UUID]bool

	// invoked just before Resolve applies, to simulate a racing admin
	beforeResolve func()
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{
		issues:        make(map[uuid.UUID]*model.Issue),
		flaggedOrders: make(map[uuid.UUID]bool),
	}
}

func (r *fakeIssueRepo) Create(issue *model.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if issue.ID == uuid.Nil {
		issue.ID = uuid.New()
	}
	cp := *issue
	r.issues[issue.ID] = &cp
	if issue.OrderID != nil {
		r.flaggedOrders[*issue.OrderID] = true
	}
	return nil
}

func (r *fakeIssueRepo) FindByID(id uuid.UUID) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *issue
	return &cp, nil
}

func (r *fakeIssueRepo) FindAll() ([]repository.IssueRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []repository.IssueRow
	for _, issue := range r.issues {
		rows = append(rows, repository.IssueRow{Issue: *issue})
	}
	return rows, nil
}

func (r *fakeIssueRepo) FindByStatus(status model.IssueStatus) ([]repository.IssueRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []repository.IssueRow
	for _, issue := range r.issues {
		if issue.Status == status {
			rows = append(rows, repository.IssueRow{Issue: *issue})
		}
	}
	return rows, nil
}

func (r *fakeIssueRepo) CountOpen() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, issue := range r.issues {
		if issue.Status == model.IssueOpen {
			count++
		}
	}
	return count, nil
}

func (r *fakeIssueRepo) Resolve(id uuid.UUID, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error) {
	if r.beforeResolve != nil {
		r.beforeResolve()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok || issue.Status != model.IssueOpen {
		return 0, nil
	}
	issue.Status = model.IssueResolved
	issue.ResolvedBy = &resolvedBy
	issue.ResolvedAt = &resolvedAt
	return 1, nil
}
