package sales

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByIDForUpdate loads the invoice and its lines holding a row lock.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindOpenByCustomerForUpdate locks the customer's non-voided invoices
	// with a balance, oldest first.
	FindOpenByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)
	NextNumber(ctx context.Context) (int64, error)
	Save(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository defines the interface for customer payment persistence
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerPayment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*CustomerPayment, error)
	Save(ctx context.Context, payment *CustomerPayment) error
}

// AllocationRepository persists the allocation trail.
type AllocationRepository interface {
	Save(ctx context.Context, allocation *PaymentAllocation) error
	FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]PaymentAllocation, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]PaymentAllocation, error)
	CountActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
}
