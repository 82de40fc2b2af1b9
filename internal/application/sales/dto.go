package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleLineInput is one requested line. UnitPrice defaults to the product's
// sale price when nil.
type SaleLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Weight    decimal.Decimal
	UnitPrice *decimal.Decimal
}

// CreateSaleInput is the request to create a sale.
type CreateSaleInput struct {
	CustomerID  uuid.UUID
	Date        *time.Time
	IncludesTax bool
	Lines       []SaleLineInput
}

// InvoiceLineResponse is a line of an invoice response.
type InvoiceLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Weight      decimal.Decimal `json:"weight"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// InvoiceResponse is the read model of an invoice.
type InvoiceResponse struct {
	ID           uuid.UUID             `json:"id"`
	Number       int64                 `json:"number"`
	CustomerID   uuid.UUID             `json:"customer_id"`
	Date         time.Time             `json:"date"`
	IncludesTax  bool                  `json:"includes_tax"`
	Subtotal     decimal.Decimal       `json:"subtotal"`
	Tax          decimal.Decimal       `json:"tax"`
	Total        decimal.Decimal       `json:"total"`
	AmountPaid   decimal.Decimal       `json:"amount_paid"`
	Outstanding  decimal.Decimal       `json:"outstanding"`
	PaymentState string                `json:"payment_state"`
	Voided       bool                  `json:"voided"`
	VoidedAt     *time.Time            `json:"voided_at,omitempty"`
	VoidReason   string                `json:"void_reason,omitempty"`
	Lines        []InvoiceLineResponse `json:"lines"`
	CreatedAt    time.Time             `json:"created_at"`
}

// ToInvoiceResponse converts the domain invoice to its response.
func ToInvoiceResponse(inv *sales.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		CustomerID:   inv.CustomerID,
		Date:         inv.Date,
		IncludesTax:  inv.IncludesTax,
		Subtotal:     inv.Subtotal,
		Tax:          inv.Tax,
		Total:        inv.Total,
		AmountPaid:   inv.AmountPaid,
		Outstanding:  inv.OutstandingBalance(),
		PaymentState: string(inv.PaymentState),
		Voided:       inv.Voided,
		VoidedAt:     inv.VoidedAt,
		VoidReason:   inv.VoidReason,
		Lines:        make([]InvoiceLineResponse, 0, len(inv.Lines)),
		CreatedAt:    inv.CreatedAt,
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, InvoiceLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Weight:      l.Weight,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	return resp
}
