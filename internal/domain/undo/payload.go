package undo

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// Kind is the closed set of compensable operations.
type Kind string

const (
	KindCreateSale      Kind = "CREATE_SALE"
	KindCreatePurchase  Kind = "CREATE_PURCHASE"
	KindRegisterPayment Kind = "REGISTER_PAYMENT"
)

// AllKinds lists every kind. A new kind must be added here and to Visitor.
func AllKinds() []Kind {
	return []Kind{KindCreateSale, KindCreatePurchase, KindRegisterPayment}
}

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	_, ok := payloadVersions[k]
	return ok
}

// payloadVersions is the current schema version per kind. Bump it when a
// payload's fields change meaning; older rows are then rejected on decode.
var payloadVersions = map[Kind]int{
	KindCreateSale:      1,
	KindCreatePurchase:  1,
	KindRegisterPayment: 1,
}

// Payload is the reconstruction data of one compensable operation.
type Payload interface {
	Kind() Kind
	Accept(v Visitor) error
}

// Visitor has one method per kind, so every dispatcher must handle them all.
type Visitor interface {
	VisitSale(p *SalePayload) error
	VisitPurchase(p *PurchasePayload) error
	VisitPayment(p *PaymentPayload) error
}

// SaleLine is the stock a sale line took out.
type SaleLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Weight    decimal.Decimal `json:"weight"`
}

// SalePayload reconstructs a sale.
type SalePayload struct {
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Number     int64           `json:"number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Lines      []SaleLine      `json:"lines"`
}

func (p *SalePayload) Kind() Kind { return KindCreateSale }
func (p *SalePayload) Accept(v Visitor) error { return v.VisitSale(p) }

// PurchaseLineSnapshot is the state of a line's stock item and supplier lot
// captured before the purchase received into them.
type PurchaseLineSnapshot struct {
	LineID     uuid.UUID              `json:"line_id"`
	Item       inventory.StockItemRef `json:"item"`
	Quantity   decimal.Decimal        `json:"quantity"`
	Weight     decimal.Decimal        `json:"weight"`
	UnitPrice  decimal.Decimal        `json:"unit_price"`
	ItemBefore inventory.Level        `json:"item_before"`
	LotBefore  inventory.LotSnapshot  `json:"lot_before"`
}

// PurchasePayload reconstructs a purchase.
type PurchasePayload struct {
	PurchaseID uuid.UUID              `json:"purchase_id"`
	Number     int64                  `json:"number"`
	SupplierID uuid.UUID              `json:"supplier_id"`
	Total      decimal.Decimal        `json:"total"`
	MovementID *uuid.UUID             `json:"movement_id,omitempty"`
	Lines      []PurchaseLineSnapshot `json:"lines"`
}

func (p *PurchasePayload) Kind() Kind { return KindCreatePurchase }
func (p *PurchasePayload) Accept(v Visitor) error { return v.VisitPurchase(p) }

// AffectedInvoice is one invoice a payment was applied to.
type AffectedInvoice struct {
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Number     int64           `json:"number"`
	Applied    decimal.Decimal `json:"applied"`
	PaidBefore decimal.Decimal `json:"paid_before"`
}

// PaymentPayload reconstructs a payment registration.
type PaymentPayload struct {
	PaymentID  uuid.UUID         `json:"payment_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	Amount     decimal.Decimal   `json:"amount"`
	Direct     bool              `json:"direct"`
	MovementID *uuid.UUID        `json:"movement_id,omitempty"`
	Invoices   []AffectedInvoice `json:"invoices"`
}

func (p *PaymentPayload) Kind() Kind { return KindRegisterPayment }
func (p *PaymentPayload) Accept(v Visitor) error { return v.VisitPayment(p) }

type envelope struct {
	Kind    Kind            `json:"kind"`
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// EncodePayload wraps the payload in a versioned envelope.
func EncodePayload(p Payload) ([]byte, error) {
	version, ok := payloadVersions[p.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind())
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.Kind(), err)
	}
	return json.Marshal(envelope{Kind: p.Kind(), Version: version, Data: data})
}

// DecodePayload reads an envelope back into its typed payload. Unknown kinds
// and versions other than the current one are rejected.
func DecodePayload(raw []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	version, ok := payloadVersions[env.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if env.Version != version {
		return nil, fmt.Errorf("%w: %s payload version %d, expected %d", ErrIncompatiblePayload, env.Kind, env.Version, version)
	}

	var p Payload
	switch env.Kind {
	case KindCreateSale:
		p = &SalePayload{}
	case KindCreatePurchase:
		p = &PurchasePayload{}
	case KindRegisterPayment:
		p = &PaymentPayload{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if err := json.Unmarshal(env.Data, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return p, nil
}
