// Package sales holds invoices, customer payments and the allocation engine
// that applies payments to outstanding invoice balances.
package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentState is derived from amount paid versus total.
type PaymentState string

const (
	PaymentStatePending PaymentState = "PENDING"
	PaymentStatePartial PaymentState = "PARTIAL"
	PaymentStatePaid    PaymentState = "PAID"
)

// IsValid checks if the state is valid
func (s PaymentState) IsValid() bool {
	switch s {
	case PaymentStatePending, PaymentStatePartial, PaymentStatePaid:
		return true
	}
	return false
}

// InvoiceLine is one product line of a sale.
type InvoiceLine struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	Weight      decimal.Decimal
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// LineInput describes a line to put on a new invoice.
type LineInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	Weight      decimal.Decimal
	UnitPrice   decimal.Decimal
}

// lineSubtotal prices by weight when a weight is given, by units otherwise.
func lineSubtotal(in LineInput) decimal.Decimal {
	if in.Weight.IsPositive() {
		return in.Weight.Mul(in.UnitPrice).Round(2)
	}
	return in.Quantity.Mul(in.UnitPrice).Round(2)
}

// Invoice is a sale to a customer. AmountPaid and PaymentState change only
// through the allocation engine.
type Invoice struct {
	shared.BaseAggregateRoot
	shared.Voidable
	Number       int64
	CustomerID   uuid.UUID
	Date         time.Time
	IncludesTax  bool
	TaxRate      decimal.Decimal
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	AmountPaid   decimal.Decimal
	PaymentState PaymentState
	CreatedBy    uuid.UUID
	Lines        []InvoiceLine
}

// NewInvoice builds an unpaid invoice and computes its totals.
func NewInvoice(customerID uuid.UUID, date time.Time, includesTax bool, taxRate decimal.Decimal, lines []LineInput, createdBy uuid.UUID, at time.Time) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("a sale needs at least one line")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewValidationError("tax rate cannot be negative")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(at),
		CustomerID:        customerID,
		Date:              date,
		IncludesTax:       includesTax,
		TaxRate:           taxRate,
		AmountPaid:        decimal.Zero,
		CreatedBy:         createdBy,
	}

	subtotal := decimal.Zero
	for i, in := range lines {
		if in.ProductID == uuid.Nil {
			return nil, shared.NewValidationError("line %d: product is required", i+1)
		}
		if in.Quantity.IsNegative() || in.Weight.IsNegative() || (!in.Quantity.IsPositive() && !in.Weight.IsPositive()) {
			return nil, shared.NewValidationError("line %d: quantity must be positive", i+1)
		}
		if in.UnitPrice.IsNegative() {
			return nil, shared.NewValidationError("line %d: unit price cannot be negative", i+1)
		}
		line := InvoiceLine{
			BaseEntity:  shared.NewBaseEntityAt(at),
			InvoiceID:   inv.ID,
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			Weight:      in.Weight,
			UnitPrice:   in.UnitPrice,
			Subtotal:    lineSubtotal(in),
		}
		subtotal = subtotal.Add(line.Subtotal)
		inv.Lines = append(inv.Lines, line)
	}

	inv.Subtotal = subtotal
	inv.Tax = decimal.Zero
	if includesTax {
		inv.Tax = subtotal.Mul(taxRate).Round(2)
	}
	inv.Total = inv.Subtotal.Add(inv.Tax)
	inv.recomputeState()
	return inv, nil
}

// OutstandingBalance is what the customer still owes. Voided invoices owe nothing.
func (i *Invoice) OutstandingBalance() decimal.Decimal {
	if i.Voided {
		return decimal.Zero
	}
	return i.Total.Sub(i.AmountPaid)
}

// IsFullyPaid reports whether nothing is outstanding
func (i *Invoice) IsFullyPaid() bool {
	return !i.OutstandingBalance().IsPositive()
}

func (i *Invoice) recomputeState() {
	switch {
	case i.AmountPaid.GreaterThanOrEqual(i.Total):
		i.PaymentState = PaymentStatePaid
	case i.AmountPaid.IsPositive():
		i.PaymentState = PaymentStatePartial
	default:
		i.PaymentState = PaymentStatePending
	}
}

func (i *Invoice) setAmountPaid(amount decimal.Decimal, at time.Time) {
	i.AmountPaid = amount
	i.recomputeState()
	i.Touch(at)
	i.IncrementVersion()
}

// VoidSale voids the invoice. The row is kept; outstanding balance drops to zero.
func (i *Invoice) VoidSale(at time.Time, reason string, actor uuid.UUID) error {
	if err := i.Void(at, reason, actor); err != nil {
		return err
	}
	i.Touch(at)
	i.IncrementVersion()
	return nil
}
