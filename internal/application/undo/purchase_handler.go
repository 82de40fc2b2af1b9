package undo

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
)

// receivedByItem sums what each stock item received, in ascending id order.
func receivedByItem(p *undo.PurchasePayload) ([]inventory.StockItemRef, map[inventory.StockItemRef]inventory.Measure) {
	sums := make(map[inventory.StockItemRef]inventory.Measure)
	var refs []inventory.StockItemRef
	for _, l := range p.Lines {
		if _, ok := sums[l.Item]; !ok {
			refs = append(refs, l.Item)
		}
		sums[l.Item] = sums[l.Item].Add(inventory.Measure{Quantity: l.Quantity, Weight: l.Weight})
	}
	sort.Slice(refs, func(a, b int) bool { return bytes.Compare(refs[a].ID[:], refs[b].ID[:]) < 0 })
	return refs, sums
}

// validatePurchase refuses when the purchase or anything it wrote is gone,
// when it is voided, when a later purchase of the same item has been blended
// into the average cost, or when the received stock has been used since.
func (c *compensator) validatePurchase(p *undo.PurchasePayload) error {
	pur, err := c.repos.Purchases().FindByIDForUpdate(c.ctx, p.PurchaseID)
	if err != nil {
		return notFoundOr(err, shared.NewCannotUndoError("Purchase #%d no longer exists", p.Number))
	}
	if pur.Voided {
		return shared.NewCannotUndoError("Purchase #%d is already voided", p.Number)
	}

	refs, received := receivedByItem(p)
	for _, ref := range refs {
		item, err := c.repos.StockItems().FindByRefForUpdate(c.ctx, ref)
		if err != nil {
			return notFoundOr(err, shared.NewCannotUndoError("Stock item %s no longer exists", ref))
		}
		if _, err := c.repos.SupplierLots().FindForUpdate(c.ctx, ref, p.SupplierID); err != nil {
			return notFoundOr(err, shared.NewCannotUndoError("Supplier stock of %s no longer exists", item.DisplayName()))
		}
		later, err := c.repos.Purchases().HasLaterPurchaseOf(c.ctx, ref, pur)
		if err != nil {
			return fmt.Errorf("failed to check later purchases: %w", err)
		}
		if later {
			return shared.NewCannotUndoError("A later purchase of %s exists; undo it first", item.DisplayName())
		}
		lvl := item.Level()
		if lvl.Quantity.LessThan(received[ref].Quantity) || lvl.Weight.LessThan(received[ref].Weight) {
			return shared.NewCannotUndoError("Stock of %s received by purchase #%d has already been used", item.DisplayName(), p.Number)
		}
	}
	return c.validateMovement(p.MovementID)
}

func (c *compensator) undoPurchase(p *undo.PurchasePayload) error {
	refs, _ := receivedByItem(p)
	items := make(map[inventory.StockItemRef]inventory.StockItem, len(refs))
	lots := make(map[inventory.StockItemRef]*inventory.SupplierStockLot, len(refs))
	for _, ref := range refs {
		c.begin("lock stock of " + ref.String())
		item, err := c.repos.StockItems().FindByRefForUpdate(c.ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to lock stock item %s: %w", ref, err)
		}
		lot, err := c.repos.SupplierLots().FindForUpdate(c.ctx, ref, p.SupplierID)
		if err != nil {
			return fmt.Errorf("failed to lock supplier lot of %s: %w", ref, err)
		}
		items[ref], lots[ref] = item, lot
	}

	// Lines are reversed last to first so each one lands on the level it
	// was received into.
	for i := len(p.Lines) - 1; i >= 0; i-- {
		l := p.Lines[i]
		item, lot := items[l.Item], lots[l.Item]
		c.begin("reverse receipt of " + item.DisplayName())
		if err := inventory.ReverseReceipt(item, inventory.Measure{Quantity: l.Quantity, Weight: l.Weight}, l.ItemBefore); err != nil {
			return err
		}
		if err := inventory.ReverseSupplierReceipt(lot, l.Quantity, l.LotBefore); err != nil {
			return err
		}
		c.done("Removed %s of %s from stock, average cost back to %s", l.Quantity.String(), item.DisplayName(), l.ItemBefore.AverageCost.String())
	}

	for _, ref := range refs {
		c.begin("save stock of " + ref.String())
		if err := c.repos.StockItems().Save(c.ctx, items[ref]); err != nil {
			return fmt.Errorf("failed to save stock item: %w", err)
		}
		if err := c.repos.SupplierLots().Save(c.ctx, lots[ref]); err != nil {
			return fmt.Errorf("failed to save supplier lot: %w", err)
		}
		c.step = ""
	}

	if err := c.cancelMovement(p.MovementID); err != nil {
		return err
	}

	c.begin(fmt.Sprintf("void purchase #%d", p.Number))
	pur, err := c.repos.Purchases().FindByIDForUpdate(c.ctx, p.PurchaseID)
	if err != nil {
		return fmt.Errorf("failed to lock purchase: %w", err)
	}
	if pur.Voided {
		return shared.NewCannotUndoError("Purchase #%d is already voided", p.Number)
	}
	if err := pur.VoidPurchase(c.now, VoidReason, c.userID); err != nil {
		return err
	}
	if err := c.repos.Purchases().Save(c.ctx, pur); err != nil {
		return fmt.Errorf("failed to save purchase: %w", err)
	}
	c.done("Voided purchase #%d", p.Number)
	return nil
}
