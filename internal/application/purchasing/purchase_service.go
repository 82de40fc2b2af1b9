// Package purchasing registers supplier deliveries: stock and supplier lots
// are received at cost and an expense is booked.
package purchasing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/uow"
	"github.com/pyme/backend/internal/domain/finance"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/purchasing"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
	"github.com/pyme/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseService handles purchase registration.
type PurchaseService struct {
	scope   uow.TransactionScope
	now     uow.Clock
	logger  *zap.Logger
	metrics *telemetry.BusinessMetrics
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(scope uow.TransactionScope, logger *zap.Logger) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{scope: scope, now: uow.SystemClock, logger: logger}
}

// SetBusinessMetrics sets the business metrics collector
func (s *PurchaseService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// SetClock replaces the clock used to stamp records.
func (s *PurchaseService) SetClock(clock uow.Clock) {
	s.now = clock
}

// unitCost is the per-unit cost received into stock. An explicit line total
// spreads over the quantity.
func unitCost(line purchasing.PurchaseLine) decimal.Decimal {
	if line.Subtotal.Equal(line.Quantity.Mul(line.UnitPrice).Round(2)) {
		return line.UnitPrice
	}
	return line.Subtotal.Div(line.Quantity).Round(4)
}

// lockItems locks the distinct stock items in ascending id order.
func lockItems(ctx context.Context, repos uow.Repositories, refs []inventory.StockItemRef) (map[inventory.StockItemRef]inventory.StockItem, error) {
	sorted := append([]inventory.StockItemRef(nil), refs...)
	sort.Slice(sorted, func(a, b int) bool { return bytes.Compare(sorted[a].ID[:], sorted[b].ID[:]) < 0 })

	items := make(map[inventory.StockItemRef]inventory.StockItem, len(sorted))
	for _, ref := range sorted {
		item, err := repos.StockItems().FindByRefForUpdate(ctx, ref)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Stock item %s not found", ref))
			}
			return nil, fmt.Errorf("failed to lock stock item: %w", err)
		}
		items[ref] = item
	}
	return items, nil
}

// CreatePurchase receives every stock line into its item and the supplier's
// lot, books a pending expense and registers the undo action. The levels
// each line is received into are captured before the receipt.
func (s *PurchaseService) CreatePurchase(ctx context.Context, userID uuid.UUID, in CreatePurchaseInput) (*PurchaseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSupplierID, in.SupplierID.String(),
		telemetry.SpanAttrItemCount, len(in.Lines),
	)

	now := s.now()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}

	lines := make([]purchasing.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, purchasing.LineInput{
			Item:        l.Item,
			Description: l.Description,
			Quantity:    l.Quantity,
			Weight:      l.Weight,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		})
	}

	var purchase *purchasing.Purchase
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Suppliers().FindByID(ctx, in.SupplierID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Supplier")
			}
			return fmt.Errorf("failed to load supplier: %w", err)
		}

		p, err := purchasing.NewPurchase(in.SupplierID, date, lines, userID, now)
		if err != nil {
			return err
		}
		number, err := repos.Purchases().NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate purchase number: %w", err)
		}
		p.Number = number

		items, err := lockItems(ctx, repos, p.StockItems())
		if err != nil {
			return err
		}

		payload := &undo.PurchasePayload{
			PurchaseID: p.ID,
			Number:     p.Number,
			SupplierID: p.SupplierID,
			Total:      p.Total,
		}
		lots := make(map[inventory.StockItemRef]*inventory.SupplierStockLot)
		for _, line := range p.Lines {
			if line.Item == nil {
				continue
			}
			ref := *line.Item
			item := items[ref]

			lot, existed := lots[ref], true
			if lot == nil {
				lot, err = repos.SupplierLots().FindForUpdate(ctx, ref, p.SupplierID)
				if errors.Is(err, shared.ErrNotFound) {
					lot, existed, err = inventory.NewSupplierStockLot(ref, p.SupplierID, now), false, nil
				}
				if err != nil {
					return fmt.Errorf("failed to lock supplier lot: %w", err)
				}
				lots[ref] = lot
			}

			cost := unitCost(line)
			snap := undo.PurchaseLineSnapshot{
				LineID:     line.ID,
				Item:       ref,
				Quantity:   line.Quantity,
				Weight:     line.Weight,
				UnitPrice:  cost,
				ItemBefore: item.Level(),
				LotBefore:  lot.Snapshot(existed),
			}
			received := inventory.Measure{Quantity: line.Quantity, Weight: line.Weight}
			if err := inventory.ReceiveMeasured(item, received, cost); err != nil {
				return err
			}
			if err := inventory.RecordSupplierReceipt(lot, line.Quantity, cost, date); err != nil {
				return err
			}
			payload.Lines = append(payload.Lines, snap)
		}

		for _, ref := range p.StockItems() {
			if err := repos.StockItems().Save(ctx, items[ref]); err != nil {
				return fmt.Errorf("failed to save stock item: %w", err)
			}
			if err := repos.SupplierLots().Save(ctx, lots[ref]); err != nil {
				return fmt.Errorf("failed to save supplier lot: %w", err)
			}
		}

		if p.Total.IsPositive() {
			mv, err := finance.NewMovement(finance.MovementTypeExpense, finance.MovementOriginPurchase, &p.ID, p.Total,
				fmt.Sprintf("Purchase #%d", p.Number), date, userID, now)
			if err != nil {
				return err
			}
			if err := repos.Movements().Save(ctx, mv); err != nil {
				return fmt.Errorf("failed to save movement: %w", err)
			}
			p.LinkMovement(mv.ID)
			payload.MovementID = &mv.ID
		}

		if err := repos.Purchases().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save purchase: %w", err)
		}

		action, err := undo.NewAction(userID, payload,
			fmt.Sprintf("Create purchase #%d - $%s", p.Number, p.Total.StringFixed(2)),
			undo.Target{Type: "purchase", ID: p.ID}, now)
		if err != nil {
			return err
		}
		if err := repos.UndoActions().Save(ctx, action); err != nil {
			return fmt.Errorf("failed to register undo action: %w", err)
		}

		purchase = p
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordOperation(ctx, telemetry.OperationPurchase, purchase.Total)
	s.logger.Info("Purchase created",
		zap.String("purchase_id", purchase.ID.String()),
		zap.Int64("number", purchase.Number),
		zap.String("total", purchase.Total.String()),
	)

	resp := ToPurchaseResponse(purchase)
	return &resp, nil
}

// GetPurchase returns a purchase by id.
func (s *PurchaseService) GetPurchase(ctx context.Context, id uuid.UUID) (*PurchaseResponse, error) {
	var resp PurchaseResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		p, err := repos.Purchases().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Purchase")
			}
			return err
		}
		resp = ToPurchaseResponse(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
