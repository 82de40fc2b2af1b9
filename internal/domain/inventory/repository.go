package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockItemRepository resolves a StockItemRef to a product or raw material.
type StockItemRepository interface {
	// FindByRef loads the item without locking it.
	FindByRef(ctx context.Context, ref StockItemRef) (StockItem, error)
	// FindByRefForUpdate loads the item holding an exclusive row lock.
	FindByRefForUpdate(ctx context.Context, ref StockItemRef) (StockItem, error)
	// Save persists the item's level and attributes.
	Save(ctx context.Context, item StockItem) error
	// ExistsByCode checks code uniqueness within a kind.
	ExistsByCode(ctx context.Context, kind StockKind, code string) (bool, error)
}

// SupplierLotRepository persists per-supplier stock lots.
type SupplierLotRepository interface {
	// FindForUpdate locks the lot of the pair. Returns shared.ErrNotFound when the
	// supplier never delivered the item.
	FindForUpdate(ctx context.Context, item StockItemRef, supplierID uuid.UUID) (*SupplierStockLot, error)
	FindByItem(ctx context.Context, item StockItemRef) ([]SupplierStockLot, error)
	Save(ctx context.Context, lot *SupplierStockLot) error
}
