package undo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
)

// validateSale refuses when the invoice or one of its products is gone, when
// the invoice is voided, or when it has money applied to it. Payments must be
// undone first.
func (c *compensator) validateSale(p *undo.SalePayload) error {
	inv, err := c.repos.Invoices().FindByIDForUpdate(c.ctx, p.InvoiceID)
	if err != nil {
		return notFoundOr(err, shared.NewCannotUndoError("Invoice #%d no longer exists", p.Number))
	}
	if inv.Voided {
		return shared.NewCannotUndoError("Invoice #%d is already voided", p.Number)
	}
	active, err := c.repos.Allocations().CountActiveByInvoice(c.ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to count allocations: %w", err)
	}
	if active > 0 || inv.AmountPaid.IsPositive() {
		return shared.NewCannotUndoError("Invoice #%d has payments applied; undo the payments first", p.Number)
	}

	ids, _, names := soldByProduct(p)
	for _, id := range ids {
		if _, err := c.repos.StockItems().FindByRefForUpdate(c.ctx, inventory.ProductRef(id)); err != nil {
			return notFoundOr(err, shared.NewCannotUndoError("Product %s no longer exists", names[id]))
		}
	}
	return nil
}

// soldByProduct sums what each product gave up, in ascending id order.
func soldByProduct(p *undo.SalePayload) ([]uuid.UUID, map[uuid.UUID]inventory.Measure, map[uuid.UUID]string) {
	returned := make(map[uuid.UUID]inventory.Measure, len(p.Lines))
	names := make(map[uuid.UUID]string, len(p.Lines))
	ids := make([]uuid.UUID, 0, len(p.Lines))
	for _, l := range p.Lines {
		if _, ok := returned[l.ProductID]; !ok {
			ids = append(ids, l.ProductID)
		}
		returned[l.ProductID] = returned[l.ProductID].Add(inventory.Measure{Quantity: l.Quantity, Weight: l.Weight})
		names[l.ProductID] = l.Name
	}
	sortIDs(ids)
	return ids, returned, names
}

func (c *compensator) undoSale(p *undo.SalePayload) error {
	ids, returned, names := soldByProduct(p)

	for _, id := range ids {
		c.begin("return stock of " + names[id])
		item, err := c.repos.StockItems().FindByRefForUpdate(c.ctx, inventory.ProductRef(id))
		if err != nil {
			return fmt.Errorf("failed to lock product %s: %w", id, err)
		}
		m := returned[id]
		if err := inventory.ReturnStock(item, m); err != nil {
			return err
		}
		if err := c.repos.StockItems().Save(c.ctx, item); err != nil {
			return fmt.Errorf("failed to save product stock: %w", err)
		}
		c.done("Returned %s units / %s kg of %s to stock", m.Quantity.String(), m.Weight.String(), item.DisplayName())
	}

	c.begin(fmt.Sprintf("void invoice #%d", p.Number))
	inv, err := c.repos.Invoices().FindByIDForUpdate(c.ctx, p.InvoiceID)
	if err != nil {
		return fmt.Errorf("failed to lock invoice: %w", err)
	}
	if inv.Voided {
		return shared.NewCannotUndoError("Invoice #%d is already voided", p.Number)
	}
	if err := inv.VoidSale(c.now, VoidReason, c.userID); err != nil {
		return err
	}
	if err := c.repos.Invoices().Save(c.ctx, inv); err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	c.done("Voided invoice #%d", p.Number)
	return nil
}
