package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
	"github.com/pyme/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUndoActionRepository implements ActionRepository using GORM
type GormUndoActionRepository struct {
	db *gorm.DB
}

// NewGormUndoActionRepository creates a new GormUndoActionRepository
func NewGormUndoActionRepository(db *gorm.DB) *GormUndoActionRepository {
	return &GormUndoActionRepository{db: db}
}

// Save creates or updates an action
func (r *GormUndoActionRepository) Save(ctx context.Context, a *undo.Action) error {
	return r.db.WithContext(ctx).Save(models.UndoActionModelFromDomain(a)).Error
}

// FindByID finds an action by its ID
func (r *GormUndoActionRepository) FindByID(ctx context.Context, id uuid.UUID) (*undo.Action, error) {
	var model models.UndoActionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func latestPending(db *gorm.DB, userID uuid.UUID, since time.Time) (*undo.Action, error) {
	var model models.UndoActionModel
	err := db.
		Where("user_id = ? AND undone_at IS NULL AND created_at >= ?", userID, since).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestPendingForUpdate locks the user's most recent action not yet undone
func (r *GormUndoActionRepository) FindLatestPendingForUpdate(ctx context.Context, userID uuid.UUID, since time.Time) (*undo.Action, error) {
	return latestPending(forUpdate(r.db.WithContext(ctx)), userID, since)
}

// FindLatestPending reads the user's most recent action not yet undone
func (r *GormUndoActionRepository) FindLatestPending(ctx context.Context, userID uuid.UUID, since time.Time) (*undo.Action, error) {
	return latestPending(r.db.WithContext(ctx), userID, since)
}

// MarkFailed writes the failure columns only
func (r *GormUndoActionRepository) MarkFailed(ctx context.Context, id uuid.UUID, status undo.RollbackStatus) error {
	result := r.db.WithContext(ctx).Model(&models.UndoActionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"has_failed_rollback": true,
			"rollback_status":     status,
			"updated_at":          status.FailedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByUser lists the user's actions, newest first
func (r *GormUndoActionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]undo.Action, error) {
	var rows []models.UndoActionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	actions := make([]undo.Action, len(rows))
	for i := range rows {
		actions[i] = *rows[i].ToDomain()
	}
	return actions, nil
}

var _ undo.ActionRepository = (*GormUndoActionRepository)(nil)

// CountPendingSince counts actions of all users that are still undoable
func (r *GormUndoActionRepository) CountPendingSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UndoActionModel{}).
		Where("undone_at IS NULL AND has_failed_rollback = ? AND created_at >= ?", false, since).
		Count(&count).Error
	return count, err
}
