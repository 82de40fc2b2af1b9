package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// RegisterPaymentInput is a payment received from a customer. With InvoiceID
// set the money goes to that invoice, otherwise it is spread oldest first.
type RegisterPaymentInput struct {
	CustomerID uuid.UUID
	InvoiceID  *uuid.UUID
	Amount     decimal.Decimal
	Method     sales.PaymentMethod
	Date       *time.Time
	Notes      string
}

// AllocationResponse is one invoice a payment was applied to.
type AllocationResponse struct {
	ID        uuid.UUID       `json:"id"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reversed  bool            `json:"reversed"`
}

// PaymentResponse is the read model of a customer payment.
type PaymentResponse struct {
	ID          uuid.UUID            `json:"id"`
	CustomerID  uuid.UUID            `json:"customer_id"`
	InvoiceID   *uuid.UUID           `json:"invoice_id,omitempty"`
	Amount      decimal.Decimal      `json:"amount"`
	Method      string               `json:"method"`
	Date        time.Time            `json:"date"`
	Notes       string               `json:"notes,omitempty"`
	MovementID  *uuid.UUID           `json:"movement_id,omitempty"`
	Voided      bool                 `json:"voided"`
	VoidedAt    *time.Time           `json:"voided_at,omitempty"`
	Allocated   decimal.Decimal      `json:"allocated"`
	Unapplied   decimal.Decimal      `json:"unapplied"`
	Allocations []AllocationResponse `json:"allocations"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ToPaymentResponse converts a payment and its allocations to a response.
func ToPaymentResponse(p *sales.CustomerPayment, allocations []sales.PaymentAllocation) PaymentResponse {
	resp := PaymentResponse{
		ID:          p.ID,
		CustomerID:  p.CustomerID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		Method:      string(p.Method),
		Date:        p.Date,
		Notes:       p.Notes,
		MovementID:  p.MovementID,
		Voided:      p.Voided,
		VoidedAt:    p.VoidedAt,
		Allocated:   decimal.Zero,
		Allocations: make([]AllocationResponse, 0, len(allocations)),
		CreatedAt:   p.CreatedAt,
	}
	for _, a := range allocations {
		resp.Allocations = append(resp.Allocations, AllocationResponse{
			ID:        a.ID,
			InvoiceID: a.InvoiceID,
			Amount:    a.Amount,
			Reversed:  a.Reversed,
		})
		if !a.Reversed {
			resp.Allocated = resp.Allocated.Add(a.Amount)
		}
	}
	resp.Unapplied = p.Amount.Sub(resp.Allocated)
	if p.Voided {
		resp.Unapplied = decimal.Zero
	}
	return resp
}
