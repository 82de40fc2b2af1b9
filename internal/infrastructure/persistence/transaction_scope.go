package persistence

import (
	"context"

	"github.com/pyme/backend/internal/application/uow"
	"github.com/pyme/backend/internal/domain/finance"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/partner"
	"github.com/pyme/backend/internal/domain/purchasing"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/undo"
	"gorm.io/gorm"
)

// GormTransactionScope implements uow.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn in a database transaction. The transaction is rolled back
// when fn returns an error or panics and committed otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos uow.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
}

// gormRepositories hands out repositories bound to one transaction.
type gormRepositories struct {
	tx *gorm.DB
}

func (r *gormRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormRepositories) Suppliers() partner.SupplierRepository {
	return NewGormSupplierRepository(r.tx)
}

func (r *gormRepositories) StockItems() inventory.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

func (r *gormRepositories) SupplierLots() inventory.SupplierLotRepository {
	return NewGormSupplierLotRepository(r.tx)
}

func (r *gormRepositories) Invoices() sales.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormRepositories) Payments() sales.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormRepositories) Allocations() sales.AllocationRepository {
	return NewGormAllocationRepository(r.tx)
}

func (r *gormRepositories) Purchases() purchasing.PurchaseRepository {
	return NewGormPurchaseRepository(r.tx)
}

func (r *gormRepositories) Movements() finance.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormRepositories) UndoActions() undo.ActionRepository {
	return NewGormUndoActionRepository(r.tx)
}

var (
	_ uow.TransactionScope = (*GormTransactionScope)(nil)
	_ uow.Repositories     = (*gormRepositories)(nil)
)
