package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/purchasing"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseRepository implements PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

func (r *GormPurchaseRepository) load(ctx context.Context, db *gorm.DB, id uuid.UUID) (*purchasing.Purchase, error) {
	var model models.PurchaseModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("purchase_id = ?", id).
		Order("position ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a purchase with its lines
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.Purchase, error) {
	return r.load(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the purchase row and loads its lines
func (r *GormPurchaseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*purchasing.Purchase, error) {
	return r.load(ctx, forUpdate(r.db.WithContext(ctx)), id)
}

// NextNumber returns the next purchase number
func (r *GormPurchaseRepository) NextNumber(ctx context.Context) (int64, error) {
	var max int64
	if err := r.db.WithContext(ctx).Model(&models.PurchaseModel{}).
		Select("COALESCE(MAX(number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Save upserts the purchase header. Lines are immutable and only inserted.
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *purchasing.Purchase) error {
	model := models.PurchaseModelFromDomain(purchase)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(model).Error; err != nil {
		return err
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Lines).Error
}

// HasLaterPurchaseOf reports whether another non-voided purchase with a line
// on item was recorded after p, or is dated after it. The recording time is
// what decides whether it was blended into the average cost; the user-supplied
// date can be back-dated.
func (r *GormPurchaseRepository) HasLaterPurchaseOf(ctx context.Context, item inventory.StockItemRef, p *purchasing.Purchase) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("purchases AS p").
		Joins("JOIN purchase_lines AS l ON l.purchase_id = p.id").
		Where("l.item_kind = ? AND l.item_id = ?", item.Kind, item.ID).
		Where("p.id <> ? AND p.voided = ?", p.ID, false).
		Where("(p.created_at >= ? OR p.date > ?)", p.CreatedAt, p.Date).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ purchasing.PurchaseRepository = (*GormPurchaseRepository)(nil)
