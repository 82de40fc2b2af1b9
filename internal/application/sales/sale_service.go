// Package sales creates sales: stock leaves inventory, an invoice is issued
// and the operation is recorded for undo.
package sales

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/uow"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
	"github.com/pyme/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleService handles sale creation.
type SaleService struct {
	scope   uow.TransactionScope
	taxRate decimal.Decimal
	now     uow.Clock
	logger  *zap.Logger
	metrics *telemetry.BusinessMetrics
}

// NewSaleService creates a SaleService.
func NewSaleService(scope uow.TransactionScope, taxRate decimal.Decimal, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{scope: scope, taxRate: taxRate, now: uow.SystemClock, logger: logger}
}

// SetBusinessMetrics sets the business metrics collector
func (s *SaleService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// SetClock replaces the clock used to stamp records.
func (s *SaleService) SetClock(clock uow.Clock) {
	s.now = clock
}

func validateSaleInput(in CreateSaleInput) error {
	if in.CustomerID == uuid.Nil {
		return shared.NewValidationError("customer_id is required")
	}
	if len(in.Lines) == 0 {
		return shared.NewValidationError("a sale needs at least one line")
	}
	for i, l := range in.Lines {
		if l.ProductID == uuid.Nil {
			return shared.NewValidationError("line %d: product_id is required", i+1)
		}
		if l.Quantity.IsNegative() || l.Weight.IsNegative() {
			return shared.NewValidationError("line %d: quantity and weight cannot be negative", i+1)
		}
		if !l.Quantity.IsPositive() && !l.Weight.IsPositive() {
			return shared.NewValidationError("line %d: quantity or weight must be positive", i+1)
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return shared.NewValidationError("line %d: unit_price cannot be negative", i+1)
		}
	}
	return nil
}

// sortedProductIDs returns the distinct products in ascending id order, the
// order every transaction locks them in.
func sortedProductIDs(demand map[uuid.UUID]inventory.Measure) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return bytes.Compare(ids[a][:], ids[b][:]) < 0 })
	return ids
}

// CreateSale consumes stock, issues the invoice and registers the undo action,
// all in one transaction. No stock moves unless every line is available.
func (s *SaleService) CreateSale(ctx context.Context, userID uuid.UUID, in CreateSaleInput) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, in.CustomerID.String(),
		telemetry.SpanAttrItemCount, len(in.Lines),
	)

	if err := validateSaleInput(in); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := s.now()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}

	var invoice *sales.Invoice
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Customers().FindByID(ctx, in.CustomerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Customer")
			}
			return fmt.Errorf("failed to load customer: %w", err)
		}

		demand := make(map[uuid.UUID]inventory.Measure, len(in.Lines))
		for _, l := range in.Lines {
			demand[l.ProductID] = demand[l.ProductID].Add(inventory.Measure{Quantity: l.Quantity, Weight: l.Weight})
		}

		products := make(map[uuid.UUID]*inventory.Product, len(demand))
		for _, id := range sortedProductIDs(demand) {
			item, err := repos.StockItems().FindByRefForUpdate(ctx, inventory.ProductRef(id))
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Product %s not found", id))
				}
				return fmt.Errorf("failed to lock product: %w", err)
			}
			product, ok := item.(*inventory.Product)
			if !ok {
				return fmt.Errorf("stock item %s is not a product", id)
			}
			if err := inventory.CheckAvailable(product, demand[id]); err != nil {
				return err
			}
			products[id] = product
		}

		lines := make([]sales.LineInput, 0, len(in.Lines))
		for _, l := range in.Lines {
			p := products[l.ProductID]
			price := p.SalePrice
			if l.UnitPrice != nil {
				price = *l.UnitPrice
			}
			lines = append(lines, sales.LineInput{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				Weight:      l.Weight,
				UnitPrice:   price,
			})
		}

		inv, err := sales.NewInvoice(in.CustomerID, date, in.IncludesTax, s.taxRate, lines, userID, now)
		if err != nil {
			return err
		}
		number, err := repos.Invoices().NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		inv.Number = number

		for _, id := range sortedProductIDs(demand) {
			p := products[id]
			if err := inventory.ConsumeStock(p, demand[id]); err != nil {
				return err
			}
			if err := repos.StockItems().Save(ctx, p); err != nil {
				return fmt.Errorf("failed to save product stock: %w", err)
			}
		}

		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}

		action, err := undo.NewAction(userID, salePayload(inv),
			fmt.Sprintf("Create sale #%d - $%s", inv.Number, inv.Total.StringFixed(2)),
			undo.Target{Type: "invoice", ID: inv.ID}, now)
		if err != nil {
			return err
		}
		if err := repos.UndoActions().Save(ctx, action); err != nil {
			return fmt.Errorf("failed to register undo action: %w", err)
		}

		invoice = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceNumber, invoice.Number)
	s.metrics.RecordOperation(ctx, telemetry.OperationSale, invoice.Total)
	s.logger.Info("Sale created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int64("number", invoice.Number),
		zap.String("total", invoice.Total.String()),
	)

	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

func salePayload(inv *sales.Invoice) *undo.SalePayload {
	p := &undo.SalePayload{
		InvoiceID:  inv.ID,
		Number:     inv.Number,
		CustomerID: inv.CustomerID,
		Total:      inv.Total,
		Lines:      make([]undo.SaleLine, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		p.Lines = append(p.Lines, undo.SaleLine{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			Quantity:  l.Quantity,
			Weight:    l.Weight,
		})
	}
	return p
}

// GetInvoice returns an invoice by id.
func (s *SaleService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		inv, err := repos.Invoices().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Invoice")
			}
			return err
		}
		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
