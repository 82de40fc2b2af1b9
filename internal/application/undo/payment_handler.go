package undo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
)

// lockAffected locks the invoices a payment touched in ascending id order.
func (c *compensator) lockAffected(p *undo.PaymentPayload) (map[uuid.UUID]*sales.Invoice, error) {
	ids := make([]uuid.UUID, 0, len(p.Invoices))
	for _, ai := range p.Invoices {
		ids = append(ids, ai.InvoiceID)
	}
	sortIDs(ids)

	invoices := make(map[uuid.UUID]*sales.Invoice, len(ids))
	for _, id := range ids {
		inv, err := c.repos.Invoices().FindByIDForUpdate(c.ctx, id)
		if err != nil {
			return nil, err
		}
		invoices[id] = inv
	}
	return invoices, nil
}

// validatePayment refuses when the payment or its movement is gone, when the
// payment or a touched invoice was voided, or when a later payment moved an
// invoice's amount paid.
func (c *compensator) validatePayment(p *undo.PaymentPayload) error {
	pay, err := c.repos.Payments().FindByIDForUpdate(c.ctx, p.PaymentID)
	if err != nil {
		return notFoundOr(err, shared.NewCannotUndoError("The payment no longer exists"))
	}
	if pay.Voided {
		return shared.NewCannotUndoError("The payment is already voided")
	}

	invoices, err := c.lockAffected(p)
	if err != nil {
		return notFoundOr(err, shared.NewCannotUndoError("An invoice the payment was applied to no longer exists"))
	}
	for _, ai := range p.Invoices {
		inv := invoices[ai.InvoiceID]
		if inv.Voided {
			return shared.NewCannotUndoError("Invoice #%d was voided after the payment", ai.Number)
		}
		if !inv.AmountPaid.Equal(ai.PaidBefore.Add(ai.Applied)) {
			return shared.NewCannotUndoError("Invoice #%d received another payment since; undo that one first", ai.Number)
		}
	}
	return c.validateMovement(p.MovementID)
}

func (c *compensator) undoPayment(p *undo.PaymentPayload) error {
	c.begin("lock invoices")
	invoices, err := c.lockAffected(p)
	if err != nil {
		return fmt.Errorf("failed to lock invoices: %w", err)
	}
	for _, ai := range p.Invoices {
		inv := invoices[ai.InvoiceID]
		c.begin(fmt.Sprintf("restore invoice #%d", ai.Number))
		if err := sales.RevertPayment(inv, ai.PaidBefore, c.now); err != nil {
			return err
		}
		if err := c.repos.Invoices().Save(c.ctx, inv); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		c.done("Invoice #%d amount paid back to %s", ai.Number, ai.PaidBefore.StringFixed(2))
	}

	c.begin("reverse allocations")
	allocations, err := c.repos.Allocations().FindByPayment(c.ctx, p.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to load allocations: %w", err)
	}
	reversed := 0
	for i := range allocations {
		a := &allocations[i]
		if a.Reversed {
			continue
		}
		if err := a.Reverse(c.now); err != nil {
			return err
		}
		if err := c.repos.Allocations().Save(c.ctx, a); err != nil {
			return fmt.Errorf("failed to save allocation: %w", err)
		}
		reversed++
	}
	for _, ai := range p.Invoices {
		trail, err := c.repos.Allocations().FindByInvoice(c.ctx, ai.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to load invoice allocations: %w", err)
		}
		if err := sales.VerifyAllocations(invoices[ai.InvoiceID], trail); err != nil {
			return err
		}
	}
	c.done("Reversed %d allocation(s)", reversed)

	if err := c.cancelMovement(p.MovementID); err != nil {
		return err
	}

	c.begin("void payment")
	pay, err := c.repos.Payments().FindByIDForUpdate(c.ctx, p.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to lock payment: %w", err)
	}
	if pay.Voided {
		return shared.NewCannotUndoError("The payment is already voided")
	}
	if err := pay.VoidPayment(c.now, VoidReason, c.userID); err != nil {
		return err
	}
	if err := c.repos.Payments().Save(c.ctx, pay); err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	c.done("Voided payment of $%s", pay.Amount.StringFixed(2))
	return nil
}
