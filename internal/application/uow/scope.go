// Package uow defines the unit of work that every mutating operation runs in.
package uow

import (
	"context"
	"time"

	"github.com/pyme/backend/internal/domain/finance"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/partner"
	"github.com/pyme/backend/internal/domain/purchasing"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/undo"
)

// TransactionScope runs fn in one database transaction. If fn returns an
// error the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every repository within a transaction.
// All of them share the same underlying database transaction.
type Repositories interface {
	Customers() partner.CustomerRepository
	Suppliers() partner.SupplierRepository
	StockItems() inventory.StockItemRepository
	SupplierLots() inventory.SupplierLotRepository
	Invoices() sales.InvoiceRepository
	Payments() sales.PaymentRepository
	Allocations() sales.AllocationRepository
	Purchases() purchasing.PurchaseRepository
	Movements() finance.MovementRepository
	UndoActions() undo.ActionRepository
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
