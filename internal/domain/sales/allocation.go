package sales

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Application is the outcome of applying money to one invoice.
type Application struct {
	Invoice    *Invoice
	PaidBefore decimal.Decimal
	Applied    decimal.Decimal
	Overflow   decimal.Decimal
	Allocation *PaymentAllocation
}

// ApplyPayment applies amount to the invoice's outstanding balance. The
// applied part is capped at the balance; the excess comes back as Overflow
// for the caller to redirect. When createAllocation is set, the returned
// allocation records exactly the applied part.
func ApplyPayment(inv *Invoice, amount decimal.Decimal, payment *CustomerPayment, createAllocation bool) (Application, error) {
	if !amount.IsPositive() {
		return Application{}, shared.NewValidationError("payment amount must be greater than zero")
	}
	if inv.Voided {
		return Application{}, shared.NewDomainError(shared.CodeInvalidOperation,
			fmt.Sprintf("Invoice #%d is voided and cannot receive payments", inv.Number))
	}
	if createAllocation && payment == nil {
		return Application{}, shared.NewValidationError("an allocation needs a payment")
	}

	outstanding := inv.OutstandingBalance()
	applied := decimal.Min(amount, outstanding)
	app := Application{
		Invoice:    inv,
		PaidBefore: inv.AmountPaid,
		Applied:    applied,
		Overflow:   amount.Sub(applied),
	}
	if !applied.IsPositive() {
		return app, nil
	}

	now := time.Now().UTC()
	inv.setAmountPaid(inv.AmountPaid.Add(applied), now)

	if createAllocation {
		app.Allocation = &PaymentAllocation{
			BaseEntity: shared.NewBaseEntityAt(now),
			PaymentID:  payment.ID,
			InvoiceID:  inv.ID,
			Amount:     applied,
		}
	}
	return app, nil
}

// FIFOResult is the outcome of spreading a payment over open invoices.
type FIFOResult struct {
	Applications []Application
	Unapplied    decimal.Decimal
}

// Allocated is the total applied across invoices.
func (r FIFOResult) Allocated() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range r.Applications {
		sum = sum.Add(a.Applied)
	}
	return sum
}

// OrderOldestFirst sorts invoices by date, then number, then id.
func OrderOldestFirst(invoices []*Invoice) {
	sort.SliceStable(invoices, func(a, b int) bool {
		ia, ib := invoices[a], invoices[b]
		if !ia.Date.Equal(ib.Date) {
			return ia.Date.Before(ib.Date)
		}
		if ia.Number != ib.Number {
			return ia.Number < ib.Number
		}
		return ia.ID.String() < ib.ID.String()
	})
}

// FIFOApply applies total to the candidates oldest first until the money or
// the candidates run out. Voided and fully paid invoices are skipped. Money
// left over is returned as Unapplied and stays as customer credit.
func FIFOApply(payment *CustomerPayment, candidates []*Invoice, total decimal.Decimal) (FIFOResult, error) {
	if !total.IsPositive() {
		return FIFOResult{}, shared.NewValidationError("payment amount must be greater than zero")
	}
	if payment == nil {
		return FIFOResult{}, shared.NewValidationError("an allocation needs a payment")
	}

	open := make([]*Invoice, 0, len(candidates))
	for _, inv := range candidates {
		if inv.CustomerID != payment.CustomerID {
			return FIFOResult{}, shared.NewValidationError("invoice #%d belongs to another customer", inv.Number)
		}
		if inv.Voided || inv.IsFullyPaid() {
			continue
		}
		open = append(open, inv)
	}
	OrderOldestFirst(open)

	result := FIFOResult{Unapplied: total}
	for _, inv := range open {
		if !result.Unapplied.IsPositive() {
			break
		}
		app, err := ApplyPayment(inv, result.Unapplied, payment, true)
		if err != nil {
			return FIFOResult{}, err
		}
		result.Applications = append(result.Applications, app)
		result.Unapplied = app.Overflow
	}
	return result, nil
}

// FIFONote describes where an on-account payment went.
func FIFONote(apps []Application) string {
	if len(apps) == 0 {
		return ""
	}
	parts := make([]string, 0, len(apps))
	for _, a := range apps {
		parts = append(parts, fmt.Sprintf("#%d: $%s", a.Invoice.Number, a.Applied.StringFixed(2)))
	}
	return "Applied automatically (FIFO) to: " + strings.Join(parts, ", ")
}

// RevertPayment puts amount_paid back to the value captured before a payment
// was applied.
func RevertPayment(inv *Invoice, paidBefore decimal.Decimal, at time.Time) error {
	if inv.Voided {
		return shared.NewDomainError(shared.CodeInvalidOperation,
			fmt.Sprintf("Invoice #%d is voided", inv.Number))
	}
	if paidBefore.IsNegative() || paidBefore.GreaterThan(inv.Total) {
		return shared.NewValidationError("amount paid must stay between 0 and the invoice total")
	}
	inv.setAmountPaid(paidBefore, at)
	return nil
}

// VerifyAllocations checks that the active allocations of a non-voided invoice
// add up to its amount paid.
func VerifyAllocations(inv *Invoice, allocations []PaymentAllocation) error {
	if inv.Voided {
		return nil
	}
	sum := decimal.Zero
	for _, a := range allocations {
		if a.InvoiceID != inv.ID || a.Reversed {
			continue
		}
		sum = sum.Add(a.Amount)
	}
	if !sum.Equal(inv.AmountPaid) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Invoice #%d: allocations add up to %s but amount paid is %s", inv.Number, sum.String(), inv.AmountPaid.String()))
	}
	return nil
}
