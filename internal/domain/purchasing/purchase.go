// Package purchasing holds supplier purchases.
package purchasing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseLine is one line of a purchase. Lines without an Item are
// non-stock charges such as freight.
type PurchaseLine struct {
	shared.BaseEntity
	PurchaseID  uuid.UUID
	Item        *inventory.StockItemRef
	Description string
	Quantity    decimal.Decimal
	Weight      decimal.Decimal
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// LineInput describes a line to put on a new purchase. LineTotal, when set,
// overrides quantity*unit price as the line subtotal. Weight is the
// kilograms received with a product and never affects the price.
type LineInput struct {
	Item        *inventory.StockItemRef
	Description string
	Quantity    decimal.Decimal
	Weight      decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   *decimal.Decimal
}

// Purchase is a supplier delivery.
type Purchase struct {
	shared.BaseAggregateRoot
	shared.Voidable
	Number     int64
	SupplierID uuid.UUID
	Date       time.Time
	Total      decimal.Decimal
	MovementID *uuid.UUID
	CreatedBy  uuid.UUID
	Lines      []PurchaseLine
}

// NewPurchase validates the lines and computes the total.
func NewPurchase(supplierID uuid.UUID, date time.Time, lines []LineInput, createdBy uuid.UUID, at time.Time) (*Purchase, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("supplier is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("a purchase needs at least one line")
	}

	p := &Purchase{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(at),
		SupplierID:        supplierID,
		Date:              date,
		CreatedBy:         createdBy,
	}
	total := decimal.Zero
	for i, in := range lines {
		if in.Item != nil {
			if err := in.Item.Validate(); err != nil {
				return nil, err
			}
		} else if strings.TrimSpace(in.Description) == "" {
			return nil, shared.NewValidationError("line %d: a line without stock item needs a description", i+1)
		}
		if !in.Quantity.IsPositive() {
			return nil, shared.NewValidationError("line %d: quantity must be positive", i+1)
		}
		if in.Weight.IsNegative() {
			return nil, shared.NewValidationError("line %d: weight cannot be negative", i+1)
		}
		if in.Weight.IsPositive() && (in.Item == nil || in.Item.Kind != inventory.StockKindProduct) {
			return nil, shared.NewValidationError("line %d: only product lines carry weight", i+1)
		}
		if in.UnitPrice.IsNegative() {
			return nil, shared.NewValidationError("line %d: unit price cannot be negative", i+1)
		}
		subtotal := in.Quantity.Mul(in.UnitPrice).Round(2)
		if in.LineTotal != nil {
			if in.LineTotal.IsNegative() {
				return nil, shared.NewValidationError("line %d: line total cannot be negative", i+1)
			}
			subtotal = *in.LineTotal
		}
		p.Lines = append(p.Lines, PurchaseLine{
			BaseEntity:  shared.NewBaseEntityAt(at),
			PurchaseID:  p.ID,
			Item:        in.Item,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			Weight:      in.Weight,
			UnitPrice:   in.UnitPrice,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}
	p.Total = total
	return p, nil
}

// LinkMovement records the ledger row the purchase produced.
func (p *Purchase) LinkMovement(id uuid.UUID) {
	p.MovementID = &id
}

// StockItems returns the distinct stock items the purchase touches.
func (p *Purchase) StockItems() []inventory.StockItemRef {
	seen := make(map[inventory.StockItemRef]struct{})
	var refs []inventory.StockItemRef
	for _, l := range p.Lines {
		if l.Item == nil {
			continue
		}
		if _, ok := seen[*l.Item]; ok {
			continue
		}
		seen[*l.Item] = struct{}{}
		refs = append(refs, *l.Item)
	}
	return refs
}

// VoidPurchase voids the purchase, keeping the row.
func (p *Purchase) VoidPurchase(at time.Time, reason string, actor uuid.UUID) error {
	if err := p.Void(at, reason, actor); err != nil {
		return err
	}
	p.Touch(at)
	p.IncrementVersion()
	return nil
}

// PurchaseRepository defines the interface for purchase persistence
type PurchaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Purchase, error)
	NextNumber(ctx context.Context) (int64, error)
	Save(ctx context.Context, purchase *Purchase) error
	// HasLaterPurchaseOf reports whether a non-voided purchase other than p,
	// recorded or dated after it, has a line on item.
	HasLaterPurchaseOf(ctx context.Context, item inventory.StockItemRef, p *Purchase) (bool, error)
}
