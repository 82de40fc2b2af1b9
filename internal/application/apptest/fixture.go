// Package apptest wires every application service to an in-memory sqlite
// database behind one controllable clock.
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/pyme/backend/internal/application/catalog"
	financeapp "github.com/pyme/backend/internal/application/finance"
	purchasingapp "github.com/pyme/backend/internal/application/purchasing"
	salesapp "github.com/pyme/backend/internal/application/sales"
	undoapp "github.com/pyme/backend/internal/application/undo"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/undo"
	"github.com/pyme/backend/internal/infrastructure/persistence"
	"github.com/pyme/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Clock is a settable time source shared by every service of a Fixture.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Fixture holds the services under test.
type Fixture struct {
	t     testing.TB
	Ctx   context.Context
	DB    *gorm.DB
	Scope *persistence.GormTransactionScope
	Clock *Clock

	Catalog   *catalogapp.CatalogService
	Sales     *salesapp.SaleService
	Purchases *purchasingapp.PurchaseService
	Payments  *financeapp.PaymentService
	Undo      *undoapp.UndoService
}

// Start is the instant every fixture clock begins at.
var Start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// New builds a fixture with a 21% tax rate and the default undo window.
func New(t testing.TB) *Fixture {
	t.Helper()
	db := persistencetest.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	clock := &Clock{}
	clock.Set(Start)
	log := zap.NewNop()

	f := &Fixture{
		t:         t,
		Ctx:       context.Background(),
		DB:        db,
		Scope:     scope,
		Clock:     clock,
		Catalog:   catalogapp.NewCatalogService(scope),
		Sales:     salesapp.NewSaleService(scope, decimal.RequireFromString("0.21"), log),
		Purchases: purchasingapp.NewPurchaseService(scope, log),
		Payments:  financeapp.NewPaymentService(scope, log),
		Undo:      undoapp.NewUndoService(scope, undo.DefaultWindow, log),
	}
	f.Catalog.SetClock(clock.Now)
	f.Sales.SetClock(clock.Now)
	f.Purchases.SetClock(clock.Now)
	f.Payments.SetClock(clock.Now)
	f.Undo.SetClock(clock.Now)
	return f
}

// D parses a decimal literal.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Customer creates a customer and returns its id.
func (f *Fixture) Customer(code string) uuid.UUID {
	f.t.Helper()
	c, err := f.Catalog.CreateCustomer(f.Ctx, catalogapp.CreatePartyRequest{Code: code, Name: "Customer " + code})
	require.NoError(f.t, err)
	return c.ID
}

// Supplier creates a supplier and returns its id.
func (f *Fixture) Supplier(code string) uuid.UUID {
	f.t.Helper()
	s, err := f.Catalog.CreateSupplier(f.Ctx, catalogapp.CreatePartyRequest{Code: code, Name: "Supplier " + code})
	require.NoError(f.t, err)
	return s.ID
}

// Product creates a product with no stock and returns its id.
func (f *Fixture) Product(code string, salePrice string) uuid.UUID {
	f.t.Helper()
	p, err := f.Catalog.CreateProduct(f.Ctx, catalogapp.CreateProductRequest{Code: code, Name: "Product " + code, SalePrice: D(salePrice)})
	require.NoError(f.t, err)
	return p.ID
}

// tick moves the clock one second ahead so consecutive operations never
// share a timestamp.
func (f *Fixture) tick() {
	f.Clock.Advance(time.Second)
}

// Receive buys quantity units of a product at unitPrice, dated today.
func (f *Fixture) Receive(user, supplier, product uuid.UUID, quantity, unitPrice string) *purchasingapp.PurchaseResponse {
	f.t.Helper()
	return f.ReceiveDated(user, supplier, product, quantity, unitPrice, nil)
}

// ReceiveDated is Receive with an explicit purchase date.
func (f *Fixture) ReceiveDated(user, supplier, product uuid.UUID, quantity, unitPrice string, date *time.Time) *purchasingapp.PurchaseResponse {
	f.t.Helper()
	f.tick()
	ref := inventory.ProductRef(product)
	p, err := f.Purchases.CreatePurchase(f.Ctx, user, purchasingapp.CreatePurchaseInput{
		SupplierID: supplier,
		Date:       date,
		Lines: []purchasingapp.PurchaseLineInput{
			{Item: &ref, Quantity: D(quantity), UnitPrice: D(unitPrice)},
		},
	})
	require.NoError(f.t, err)
	return p
}

// Sell sells quantity units of a product at the given price, without tax.
func (f *Fixture) Sell(user, customer, product uuid.UUID, quantity, unitPrice string) *salesapp.InvoiceResponse {
	f.t.Helper()
	f.tick()
	price := D(unitPrice)
	inv, err := f.Sales.CreateSale(f.Ctx, user, salesapp.CreateSaleInput{
		CustomerID: customer,
		Lines:      []salesapp.SaleLineInput{{ProductID: product, Quantity: D(quantity), UnitPrice: &price}},
	})
	require.NoError(f.t, err)
	return inv
}

// Pay registers a cash payment, targeted when invoice is set.
func (f *Fixture) Pay(user, customer uuid.UUID, invoice *uuid.UUID, amount string) *financeapp.PaymentResponse {
	f.t.Helper()
	f.tick()
	p, err := f.Payments.RegisterPayment(f.Ctx, user, financeapp.RegisterPaymentInput{
		CustomerID: customer,
		InvoiceID:  invoice,
		Amount:     D(amount),
		Method:     sales.PaymentMethodCash,
	})
	require.NoError(f.t, err)
	return p
}

// Stock returns the product's current level.
func (f *Fixture) Stock(product uuid.UUID) *catalogapp.StockItemResponse {
	f.t.Helper()
	item, err := f.Catalog.GetStockItem(f.Ctx, inventory.ProductRef(product))
	require.NoError(f.t, err)
	return item
}

// Invoice reloads an invoice.
func (f *Fixture) Invoice(id uuid.UUID) *salesapp.InvoiceResponse {
	f.t.Helper()
	inv, err := f.Sales.GetInvoice(f.Ctx, id)
	require.NoError(f.t, err)
	return inv
}
