package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) load(ctx context.Context, db *gorm.DB, id uuid.UUID) (*sales.Invoice, error) {
	var model models.InvoiceModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", id).
		Order("position ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an invoice with its lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Invoice, error) {
	return r.load(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the invoice row and loads its lines
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sales.Invoice, error) {
	return r.load(ctx, forUpdate(r.db.WithContext(ctx)), id)
}

// FindOpenByCustomerForUpdate locks the customer's non-voided invoices that
// still owe money, oldest first. Lines are not loaded.
func (r *GormInvoiceRepository) FindOpenByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) ([]*sales.Invoice, error) {
	var rows []models.InvoiceModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("customer_id = ? AND voided = ? AND amount_paid < total", customerID, false).
		Order("date ASC, number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]*sales.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, nil
}

// NextNumber returns the next invoice number. The unique index on number
// rejects a concurrent duplicate.
func (r *GormInvoiceRepository) NextNumber(ctx context.Context) (int64, error) {
	var max int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("COALESCE(MAX(number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Save upserts the invoice header. Lines are immutable and only inserted.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *sales.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(model).Error; err != nil {
		return err
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Lines).Error
}

var _ sales.InvoiceRepository = (*GormInvoiceRepository)(nil)
