package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockKind discriminates the two kinds of stock item.
type StockKind string

const (
	StockKindProduct     StockKind = "PRODUCT"
	StockKindRawMaterial StockKind = "RAW_MATERIAL"
)

// IsValid checks if the kind is one of the known stock kinds
func (k StockKind) IsValid() bool {
	return k == StockKindProduct || k == StockKindRawMaterial
}

// StockItemRef points at either a Product or a RawMaterial.
type StockItemRef struct {
	Kind StockKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// ProductRef references a product.
func ProductRef(id uuid.UUID) StockItemRef {
	return StockItemRef{Kind: StockKindProduct, ID: id}
}

// RawMaterialRef references a raw material.
func RawMaterialRef(id uuid.UUID) StockItemRef {
	return StockItemRef{Kind: StockKindRawMaterial, ID: id}
}

// Validate checks the kind and id.
func (r StockItemRef) Validate() error {
	if !r.Kind.IsValid() {
		return shared.NewValidationError("unknown stock item kind %q", r.Kind)
	}
	if r.ID == uuid.Nil {
		return shared.NewValidationError("stock item id is required")
	}
	return nil
}

func (r StockItemRef) String() string {
	return fmt.Sprintf("%s:%s", strings.ToLower(string(r.Kind)), r.ID)
}

// Level is the on-hand state of a stock item: units, kilograms and the
// moving weighted-average unit cost.
type Level struct {
	Quantity    decimal.Decimal `json:"quantity"`
	Weight      decimal.Decimal `json:"weight"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// ZeroLevel is the level of an item nothing was ever received into.
func ZeroLevel() Level {
	return Level{Quantity: decimal.Zero, Weight: decimal.Zero, AverageCost: decimal.Zero}
}

// Measure is an amount of stock in units and, optionally, kilograms.
type Measure struct {
	Quantity decimal.Decimal `json:"quantity"`
	Weight   decimal.Decimal `json:"weight"`
}

// Add sums two measures.
func (m Measure) Add(o Measure) Measure {
	return Measure{Quantity: m.Quantity.Add(o.Quantity), Weight: m.Weight.Add(o.Weight)}
}

func (m Measure) validate() error {
	if m.Quantity.IsNegative() || m.Weight.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity and weight cannot be negative")
	}
	if !m.Quantity.IsPositive() && !m.Weight.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be positive")
	}
	return nil
}

// StockItem is anything the costing engine keeps a level for. The level
// setter is unexported: only this package's engine functions write it.
type StockItem interface {
	Ref() StockItemRef
	DisplayName() string
	Level() Level
	TracksWeight() bool
	setLevel(l Level, at time.Time)
}

// Product is a finished good sold to customers, stocked in units and kilograms.
type Product struct {
	shared.BaseAggregateRoot
	Code      string
	Name      string
	SalePrice decimal.Decimal
	level     Level
}

// NewProduct creates a product with an empty stock level.
func NewProduct(code, name string, salePrice decimal.Decimal, at time.Time) (*Product, error) {
	if err := validateItem("Product", code, name); err != nil {
		return nil, err
	}
	if salePrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidPrice, "Sale price cannot be negative")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(at),
		Code:              strings.ToUpper(code),
		Name:              strings.TrimSpace(name),
		SalePrice:         salePrice,
		level:             ZeroLevel(),
	}, nil
}

// RehydrateProduct rebuilds a product from stored state.
func RehydrateProduct(root shared.BaseAggregateRoot, code, name string, salePrice decimal.Decimal, level Level) *Product {
	return &Product{BaseAggregateRoot: root, Code: code, Name: name, SalePrice: salePrice, level: level}
}

func (p *Product) Ref() StockItemRef { return ProductRef(p.ID) }
func (p *Product) DisplayName() string { return p.Name }
func (p *Product) Level() Level { return p.level }
func (p *Product) TracksWeight() bool { return true }
func (p *Product) setLevel(l Level, at time.Time) {
	p.level = l
	p.Touch(at)
	p.IncrementVersion()
}

// RawMaterial is an input bought from suppliers and tracked by quantity only.
type RawMaterial struct {
	shared.BaseAggregateRoot
	Code  string
	Name  string
	Unit  string
	level Level
}

// NewRawMaterial creates a raw material with an empty stock level.
func NewRawMaterial(code, name, unit string, at time.Time) (*RawMaterial, error) {
	if err := validateItem("Raw material", code, name); err != nil {
		return nil, err
	}
	if unit == "" {
		unit = "kg"
	}
	return &RawMaterial{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(at),
		Code:              strings.ToUpper(code),
		Name:              strings.TrimSpace(name),
		Unit:              unit,
		level:             ZeroLevel(),
	}, nil
}

// RehydrateRawMaterial rebuilds a raw material from stored state.
func RehydrateRawMaterial(root shared.BaseAggregateRoot, code, name, unit string, level Level) *RawMaterial {
	return &RawMaterial{BaseAggregateRoot: root, Code: code, Name: name, Unit: unit, level: level}
}

func (m *RawMaterial) Ref() StockItemRef { return RawMaterialRef(m.ID) }
func (m *RawMaterial) DisplayName() string { return m.Name }
func (m *RawMaterial) Level() Level { return m.level }
func (m *RawMaterial) TracksWeight() bool { return false }
func (m *RawMaterial) setLevel(l Level, at time.Time) {
	m.level = l
	m.Touch(at)
	m.IncrementVersion()
}

// SupplierStockLot tracks quantity and average cost of one stock item as
// bought from one supplier.
type SupplierStockLot struct {
	shared.BaseAggregateRoot
	Item           StockItemRef
	SupplierID     uuid.UUID
	LastPurchaseAt *time.Time
	TotalPurchased decimal.Decimal
	level          Level
}

// NewSupplierStockLot creates an empty lot for the pair.
func NewSupplierStockLot(item StockItemRef, supplierID uuid.UUID, at time.Time) *SupplierStockLot {
	return &SupplierStockLot{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(at),
		Item:              item,
		SupplierID:        supplierID,
		TotalPurchased:    decimal.Zero,
		level:             ZeroLevel(),
	}
}

// RehydrateSupplierStockLot rebuilds a lot from stored state.
func RehydrateSupplierStockLot(root shared.BaseAggregateRoot, item StockItemRef, supplierID uuid.UUID, lastPurchaseAt *time.Time, totalPurchased decimal.Decimal, level Level) *SupplierStockLot {
	return &SupplierStockLot{
		BaseAggregateRoot: root,
		Item:              item,
		SupplierID:        supplierID,
		LastPurchaseAt:    lastPurchaseAt,
		TotalPurchased:    totalPurchased,
		level:             level,
	}
}

func (l *SupplierStockLot) Ref() StockItemRef { return l.Item }
func (l *SupplierStockLot) DisplayName() string { return l.Item.String() }
func (l *SupplierStockLot) Level() Level { return l.level }
func (l *SupplierStockLot) TracksWeight() bool { return false }
func (l *SupplierStockLot) setLevel(lv Level, at time.Time) {
	l.level = lv
	l.Touch(at)
	l.IncrementVersion()
}

// LotSnapshot is everything about a lot a purchase changes.
type LotSnapshot struct {
	Existed        bool            `json:"existed"`
	Level          Level           `json:"level"`
	LastPurchaseAt *time.Time      `json:"last_purchase_at,omitempty"`
	TotalPurchased decimal.Decimal `json:"total_purchased"`
}

// Snapshot captures the lot before a purchase touches it. A lot created in
// the same operation reports Existed=false.
func (l *SupplierStockLot) Snapshot(existed bool) LotSnapshot {
	return LotSnapshot{
		Existed:        existed,
		Level:          l.level,
		LastPurchaseAt: l.LastPurchaseAt,
		TotalPurchased: l.TotalPurchased,
	}
}

func validateItem(kind, code, name string) error {
	if strings.TrimSpace(code) == "" {
		return shared.NewDomainError(shared.CodeInvalidCode, kind+" code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError(shared.CodeInvalidCode, kind+" code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError(shared.CodeInvalidName, kind+" name cannot be empty")
	}
	return nil
}
