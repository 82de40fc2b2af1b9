package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/purchasing"
	"github.com/shopspring/decimal"
)

// PurchaseLineInput is one requested line. Item is nil for non-stock charges.
type PurchaseLineInput struct {
	Item        *inventory.StockItemRef
	Description string
	Quantity    decimal.Decimal
	Weight      decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   *decimal.Decimal
}

// CreatePurchaseInput is the request to register a supplier delivery.
type CreatePurchaseInput struct {
	SupplierID uuid.UUID
	Date       *time.Time
	Lines      []PurchaseLineInput
}

// PurchaseLineResponse is a line of a purchase response.
type PurchaseLineResponse struct {
	ID          uuid.UUID               `json:"id"`
	Item        *inventory.StockItemRef `json:"item,omitempty"`
	Description string                  `json:"description,omitempty"`
	Quantity    decimal.Decimal         `json:"quantity"`
	Weight      decimal.Decimal         `json:"weight"`
	UnitPrice   decimal.Decimal         `json:"unit_price"`
	Subtotal    decimal.Decimal         `json:"subtotal"`
}

// PurchaseResponse is the read model of a purchase.
type PurchaseResponse struct {
	ID         uuid.UUID              `json:"id"`
	Number     int64                  `json:"number"`
	SupplierID uuid.UUID              `json:"supplier_id"`
	Date       time.Time              `json:"date"`
	Total      decimal.Decimal        `json:"total"`
	MovementID *uuid.UUID             `json:"movement_id,omitempty"`
	Voided     bool                   `json:"voided"`
	VoidedAt   *time.Time             `json:"voided_at,omitempty"`
	VoidReason string                 `json:"void_reason,omitempty"`
	Lines      []PurchaseLineResponse `json:"lines"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ToPurchaseResponse converts the domain purchase to its response.
func ToPurchaseResponse(p *purchasing.Purchase) PurchaseResponse {
	resp := PurchaseResponse{
		ID:         p.ID,
		Number:     p.Number,
		SupplierID: p.SupplierID,
		Date:       p.Date,
		Total:      p.Total,
		MovementID: p.MovementID,
		Voided:     p.Voided,
		VoidedAt:   p.VoidedAt,
		VoidReason: p.VoidReason,
		Lines:      make([]PurchaseLineResponse, 0, len(p.Lines)),
		CreatedAt:  p.CreatedAt,
	}
	for _, l := range p.Lines {
		resp.Lines = append(resp.Lines, PurchaseLineResponse{
			ID:          l.ID,
			Item:        l.Item,
			Description: l.Description,
			Quantity:    l.Quantity,
			Weight:      l.Weight,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	return resp
}
