package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockItemRepository resolves stock item refs to the products or
// raw_materials table.
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

func (r *GormStockItemRepository) find(db *gorm.DB, ref inventory.StockItemRef) (inventory.StockItem, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	var err error
	switch ref.Kind {
	case inventory.StockKindProduct:
		var m models.ProductModel
		if err = db.First(&m, "id = ?", ref.ID).Error; err == nil {
			return m.ToDomain(), nil
		}
	case inventory.StockKindRawMaterial:
		var m models.RawMaterialModel
		if err = db.First(&m, "id = ?", ref.ID).Error; err == nil {
			return m.ToDomain(), nil
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return nil, err
}

// FindByRef loads a stock item without locking it
func (r *GormStockItemRepository) FindByRef(ctx context.Context, ref inventory.StockItemRef) (inventory.StockItem, error) {
	return r.find(r.db.WithContext(ctx), ref)
}

// FindByRefForUpdate loads a stock item holding a row lock
func (r *GormStockItemRepository) FindByRefForUpdate(ctx context.Context, ref inventory.StockItemRef) (inventory.StockItem, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), ref)
}

// Save persists a product or raw material
func (r *GormStockItemRepository) Save(ctx context.Context, item inventory.StockItem) error {
	db := r.db.WithContext(ctx)
	switch v := item.(type) {
	case *inventory.Product:
		return db.Save(models.ProductModelFromDomain(v)).Error
	case *inventory.RawMaterial:
		return db.Save(models.RawMaterialModelFromDomain(v)).Error
	default:
		return fmt.Errorf("unsupported stock item %T", item)
	}
}

// ExistsByCode checks code uniqueness within a kind
func (r *GormStockItemRepository) ExistsByCode(ctx context.Context, kind inventory.StockKind, code string) (bool, error) {
	var model any
	switch kind {
	case inventory.StockKindProduct:
		model = &models.ProductModel{}
	case inventory.StockKindRawMaterial:
		model = &models.RawMaterialModel{}
	default:
		return false, shared.NewValidationError("unknown stock kind %q", kind)
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("code = ?", strings.ToUpper(code)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ inventory.StockItemRepository = (*GormStockItemRepository)(nil)

// GormSupplierLotRepository implements SupplierLotRepository using GORM
type GormSupplierLotRepository struct {
	db *gorm.DB
}

// NewGormSupplierLotRepository creates a new GormSupplierLotRepository
func NewGormSupplierLotRepository(db *gorm.DB) *GormSupplierLotRepository {
	return &GormSupplierLotRepository{db: db}
}

// FindForUpdate locks the lot of an item and supplier
func (r *GormSupplierLotRepository) FindForUpdate(ctx context.Context, item inventory.StockItemRef, supplierID uuid.UUID) (*inventory.SupplierStockLot, error) {
	var m models.SupplierStockLotModel
	err := forUpdate(r.db.WithContext(ctx)).
		Where("item_kind = ? AND item_id = ? AND supplier_id = ?", item.Kind, item.ID, supplierID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByItem lists the lots of an item across suppliers
func (r *GormSupplierLotRepository) FindByItem(ctx context.Context, item inventory.StockItemRef) ([]inventory.SupplierStockLot, error) {
	var rows []models.SupplierStockLotModel
	if err := r.db.WithContext(ctx).
		Where("item_kind = ? AND item_id = ?", item.Kind, item.ID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lots := make([]inventory.SupplierStockLot, len(rows))
	for i := range rows {
		lots[i] = *rows[i].ToDomain()
	}
	return lots, nil
}

// Save creates or updates a lot
func (r *GormSupplierLotRepository) Save(ctx context.Context, lot *inventory.SupplierStockLot) error {
	return r.db.WithContext(ctx).Save(models.SupplierStockLotModelFromDomain(lot)).Error
}

var _ inventory.SupplierLotRepository = (*GormSupplierLotRepository)(nil)
