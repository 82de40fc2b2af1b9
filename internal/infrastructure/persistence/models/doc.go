// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM concerns; each model converts with ToDomain and a FromDomain constructor.
//
// Structure:
//   - base.go: BaseModel, AggregateModel and VoidModel
//   - partner.go: customers and suppliers
//   - inventory.go: products, raw materials and supplier stock lots
//   - sales.go: invoices, customer payments and allocations
//   - purchasing.go: purchases
//   - finance.go: financial movements
//   - undo.go: undo actions
package models

// All lists every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&CustomerModel{},
		&SupplierModel{},
		&ProductModel{},
		&RawMaterialModel{},
		&SupplierStockLotModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
		&CustomerPaymentModel{},
		&PaymentAllocationModel{},
		&PurchaseModel{},
		&PurchaseLineModel{},
		&FinancialMovementModel{},
		&UndoActionModel{},
	}
}
