package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/finance"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

func findMovement(db *gorm.DB, id uuid.UUID) (*finance.FinancialMovement, error) {
	var model models.FinancialMovementModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a movement by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinancialMovement, error) {
	return findMovement(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a movement holding a row lock
func (r *GormMovementRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.FinancialMovement, error) {
	return findMovement(forUpdate(r.db.WithContext(ctx)), id)
}

// Save creates or updates a movement
func (r *GormMovementRepository) Save(ctx context.Context, movement *finance.FinancialMovement) error {
	return r.db.WithContext(ctx).Save(models.FinancialMovementModelFromDomain(movement)).Error
}

var _ finance.MovementRepository = (*GormMovementRepository)(nil)
