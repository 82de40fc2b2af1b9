package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	VoidModel
	Number       int64              `gorm:"not null;uniqueIndex"`
	CustomerID   uuid.UUID          `gorm:"type:uuid;not null;index:idx_invoice_customer_open,priority:1"`
	Date         time.Time          `gorm:"not null;index:idx_invoice_customer_open,priority:2"`
	IncludesTax  bool               `gorm:"not null;default:false"`
	TaxRate      decimal.Decimal    `gorm:"type:decimal(5,4);not null;default:0"`
	Subtotal     decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Tax          decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	Total        decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	AmountPaid   decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentState sales.PaymentState `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedBy    uuid.UUID          `gorm:"type:uuid;not null"`
	Lines        []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is the persistence model for an invoice line.
type InvoiceLineModel struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null;default:0"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Weight      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *sales.Invoice {
	inv := &sales.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Voidable:          m.VoidModel.ToDomain(),
		Number:            m.Number,
		CustomerID:        m.CustomerID,
		Date:              m.Date,
		IncludesTax:       m.IncludesTax,
		TaxRate:           m.TaxRate,
		Subtotal:          m.Subtotal,
		Tax:               m.Tax,
		Total:             m.Total,
		AmountPaid:        m.AmountPaid,
		PaymentState:      m.PaymentState,
		CreatedBy:         m.CreatedBy,
	}
	for _, l := range m.Lines {
		inv.Lines = append(inv.Lines, sales.InvoiceLine{
			BaseEntity:  l.BaseModel.ToDomain(),
			InvoiceID:   l.InvoiceID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Weight:      l.Weight,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *sales.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		VoidModel:    VoidModelFromDomain(inv.Voidable),
		Number:       inv.Number,
		CustomerID:   inv.CustomerID,
		Date:         inv.Date,
		IncludesTax:  inv.IncludesTax,
		TaxRate:      inv.TaxRate,
		Subtotal:     inv.Subtotal,
		Tax:          inv.Tax,
		Total:        inv.Total,
		AmountPaid:   inv.AmountPaid,
		PaymentState: inv.PaymentState,
		CreatedBy:    inv.CreatedBy,
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	for i, l := range inv.Lines {
		line := InvoiceLineModel{
			InvoiceID:   inv.ID,
			Position:    i,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Weight:      l.Weight,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		}
		line.FromDomainBaseEntity(l.BaseEntity)
		m.Lines = append(m.Lines, line)
	}
	return m
}

// CustomerPaymentModel is the persistence model for a customer payment.
type CustomerPaymentModel struct {
	AggregateModel
	VoidModel
	CustomerID uuid.UUID           `gorm:"type:uuid;not null;index"`
	InvoiceID  *uuid.UUID          `gorm:"type:uuid;index"`
	Amount     decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Method     sales.PaymentMethod `gorm:"type:varchar(20);not null"`
	Date       time.Time           `gorm:"not null"`
	Notes      string              `gorm:"type:text"`
	MovementID *uuid.UUID          `gorm:"type:uuid"`
	CreatedBy  uuid.UUID           `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (CustomerPaymentModel) TableName() string {
	return "customer_payments"
}

// ToDomain converts the persistence model to a domain CustomerPayment.
func (m *CustomerPaymentModel) ToDomain() *sales.CustomerPayment {
	return &sales.CustomerPayment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Voidable:          m.VoidModel.ToDomain(),
		CustomerID:        m.CustomerID,
		InvoiceID:         m.InvoiceID,
		Amount:            m.Amount,
		Method:            m.Method,
		Date:              m.Date,
		Notes:             m.Notes,
		MovementID:        m.MovementID,
		CreatedBy:         m.CreatedBy,
	}
}

// CustomerPaymentModelFromDomain creates a persistence model from a domain CustomerPayment.
func CustomerPaymentModelFromDomain(p *sales.CustomerPayment) *CustomerPaymentModel {
	m := &CustomerPaymentModel{
		VoidModel:  VoidModelFromDomain(p.Voidable),
		CustomerID: p.CustomerID,
		InvoiceID:  p.InvoiceID,
		Amount:     p.Amount,
		Method:     p.Method,
		Date:       p.Date,
		Notes:      p.Notes,
		MovementID: p.MovementID,
		CreatedBy:  p.CreatedBy,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// PaymentAllocationModel is the persistence model for a payment allocation.
type PaymentAllocationModel struct {
	BaseModel
	PaymentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reversed   bool            `gorm:"not null;default:false"`
	ReversedAt *time.Time
	Notes      string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain PaymentAllocation.
func (m *PaymentAllocationModel) ToDomain() sales.PaymentAllocation {
	return sales.PaymentAllocation{
		BaseEntity: m.BaseModel.ToDomain(),
		PaymentID:  m.PaymentID,
		InvoiceID:  m.InvoiceID,
		Amount:     m.Amount,
		Reversed:   m.Reversed,
		ReversedAt: m.ReversedAt,
		Notes:      m.Notes,
	}
}

// PaymentAllocationModelFromDomain creates a persistence model from a domain PaymentAllocation.
func PaymentAllocationModelFromDomain(a *sales.PaymentAllocation) *PaymentAllocationModel {
	m := &PaymentAllocationModel{
		PaymentID:  a.PaymentID,
		InvoiceID:  a.InvoiceID,
		Amount:     a.Amount,
		Reversed:   a.Reversed,
		ReversedAt: a.ReversedAt,
		Notes:      a.Notes,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
