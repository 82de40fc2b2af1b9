package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a customer paid.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCheck    PaymentMethod = "CHECK"
)

// IsValid checks if the method is one of the accepted methods
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCheck:
		return true
	}
	return false
}

// CustomerPayment is money received from a customer, either tied to one
// invoice or taken on account and spread over open invoices oldest first.
// Only the void transition and the notes change after creation.
type CustomerPayment struct {
	shared.BaseAggregateRoot
	shared.Voidable
	CustomerID uuid.UUID
	InvoiceID  *uuid.UUID
	Amount     decimal.Decimal
	Method     PaymentMethod
	Date       time.Time
	Notes      string
	MovementID *uuid.UUID
	CreatedBy  uuid.UUID
}

// NewCustomerPayment validates and creates a payment.
func NewCustomerPayment(customerID uuid.UUID, invoiceID *uuid.UUID, amount decimal.Decimal, method PaymentMethod, date time.Time, notes string, createdBy uuid.UUID, at time.Time) (*CustomerPayment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("payment amount must be greater than zero")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("unknown payment method %q", method)
	}
	return &CustomerPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(at),
		CustomerID:        customerID,
		InvoiceID:         invoiceID,
		Amount:            amount,
		Method:            method,
		Date:              date,
		Notes:             strings.TrimSpace(notes),
		CreatedBy:         createdBy,
	}, nil
}

// IsDirect reports whether the payment targets one invoice.
func (p *CustomerPayment) IsDirect() bool {
	return p.InvoiceID != nil
}

// AppendNote adds a line to the observation notes.
func (p *CustomerPayment) AppendNote(note string) {
	if note == "" {
		return
	}
	if p.Notes == "" {
		p.Notes = note
		return
	}
	p.Notes += "\n" + note
}

// LinkMovement records the ledger row the payment produced.
func (p *CustomerPayment) LinkMovement(id uuid.UUID) {
	p.MovementID = &id
}

// VoidPayment voids the payment. Reversing its allocations is the caller's job.
func (p *CustomerPayment) VoidPayment(at time.Time, reason string, actor uuid.UUID) error {
	if err := p.Void(at, reason, actor); err != nil {
		return err
	}
	p.Touch(at)
	p.IncrementVersion()
	return nil
}

// PaymentAllocation is one entry of the allocation trail: it records how much
// of a payment went to an invoice. Rows are never deleted nor negated; undoing
// a payment flags its rows reversed.
type PaymentAllocation struct {
	shared.BaseEntity
	PaymentID  uuid.UUID
	InvoiceID  uuid.UUID
	Amount     decimal.Decimal
	Reversed   bool
	ReversedAt *time.Time
	Notes      string
}

// Reverse flags the allocation reversed.
func (a *PaymentAllocation) Reverse(at time.Time) error {
	if a.Reversed {
		return shared.NewDomainError(shared.CodeInvalidState, "Allocation is already reversed")
	}
	a.Reversed = true
	a.ReversedAt = &at
	a.Touch(at)
	return nil
}
