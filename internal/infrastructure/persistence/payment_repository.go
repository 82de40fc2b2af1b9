package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func findPayment(db *gorm.DB, id uuid.UUID) (*sales.CustomerPayment, error) {
	var model models.CustomerPaymentModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.CustomerPayment, error) {
	return findPayment(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a payment holding a row lock
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sales.CustomerPayment, error) {
	return findPayment(forUpdate(r.db.WithContext(ctx)), id)
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *sales.CustomerPayment) error {
	return r.db.WithContext(ctx).Save(models.CustomerPaymentModelFromDomain(payment)).Error
}

var _ sales.PaymentRepository = (*GormPaymentRepository)(nil)

// GormAllocationRepository implements AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// Save creates an allocation or records its reversal
func (r *GormAllocationRepository) Save(ctx context.Context, allocation *sales.PaymentAllocation) error {
	return r.db.WithContext(ctx).Save(models.PaymentAllocationModelFromDomain(allocation)).Error
}

func (r *GormAllocationRepository) findWhere(ctx context.Context, query string, id uuid.UUID) ([]sales.PaymentAllocation, error) {
	var rows []models.PaymentAllocationModel
	if err := r.db.WithContext(ctx).Where(query, id).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	allocations := make([]sales.PaymentAllocation, len(rows))
	for i := range rows {
		allocations[i] = rows[i].ToDomain()
	}
	return allocations, nil
}

// FindByPayment lists the allocations of a payment
func (r *GormAllocationRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]sales.PaymentAllocation, error) {
	return r.findWhere(ctx, "payment_id = ?", paymentID)
}

// FindByInvoice lists the allocations made to an invoice
func (r *GormAllocationRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]sales.PaymentAllocation, error) {
	return r.findWhere(ctx, "invoice_id = ?", invoiceID)
}

// CountActiveByInvoice counts the invoice's allocations that are not reversed
func (r *GormAllocationRepository) CountActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentAllocationModel{}).
		Where("invoice_id = ? AND reversed = ?", invoiceID, false).
		Count(&count).Error
	return count, err
}

var _ sales.AllocationRepository = (*GormAllocationRepository)(nil)
