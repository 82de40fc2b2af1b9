package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Weight      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *inventory.Product {
	return inventory.RehydrateProduct(m.ToDomainAggregateRoot(), m.Code, m.Name, m.SalePrice, inventory.Level{
		Quantity:    m.Quantity,
		Weight:      m.Weight,
		AverageCost: m.AverageCost,
	})
}

// ProductModelFromDomain creates a persistence model from a domain Product entity.
func ProductModelFromDomain(p *inventory.Product) *ProductModel {
	lvl := p.Level()
	m := &ProductModel{
		Code:        p.Code,
		Name:        p.Name,
		SalePrice:   p.SalePrice,
		Quantity:    lvl.Quantity,
		Weight:      lvl.Weight,
		AverageCost: lvl.AverageCost,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// RawMaterialModel is the persistence model for the RawMaterial domain entity.
type RawMaterialModel struct {
	AggregateModel
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Unit        string          `gorm:"type:varchar(20);not null;default:'kg'"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (RawMaterialModel) TableName() string {
	return "raw_materials"
}

// ToDomain converts the persistence model to a domain RawMaterial entity.
func (m *RawMaterialModel) ToDomain() *inventory.RawMaterial {
	return inventory.RehydrateRawMaterial(m.ToDomainAggregateRoot(), m.Code, m.Name, m.Unit, inventory.Level{
		Quantity:    m.Quantity,
		Weight:      decimal.Zero,
		AverageCost: m.AverageCost,
	})
}

// RawMaterialModelFromDomain creates a persistence model from a domain RawMaterial entity.
func RawMaterialModelFromDomain(r *inventory.RawMaterial) *RawMaterialModel {
	lvl := r.Level()
	m := &RawMaterialModel{
		Code:        r.Code,
		Name:        r.Name,
		Unit:        r.Unit,
		Quantity:    lvl.Quantity,
		AverageCost: lvl.AverageCost,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// SupplierStockLotModel is the persistence model for a supplier stock lot.
type SupplierStockLotModel struct {
	AggregateModel
	ItemKind       inventory.StockKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_supplier_lot_item,priority:1"`
	ItemID         uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_lot_item,priority:2"`
	SupplierID     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_lot_item,priority:3"`
	Quantity       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	LastPurchaseAt *time.Time
	TotalPurchased decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SupplierStockLotModel) TableName() string {
	return "supplier_stock_lots"
}

// ToDomain converts the persistence model to a domain SupplierStockLot.
func (m *SupplierStockLotModel) ToDomain() *inventory.SupplierStockLot {
	return inventory.RehydrateSupplierStockLot(
		m.ToDomainAggregateRoot(),
		inventory.StockItemRef{Kind: m.ItemKind, ID: m.ItemID},
		m.SupplierID,
		m.LastPurchaseAt,
		m.TotalPurchased,
		inventory.Level{Quantity: m.Quantity, Weight: decimal.Zero, AverageCost: m.AverageCost},
	)
}

// SupplierStockLotModelFromDomain creates a persistence model from a domain SupplierStockLot.
func SupplierStockLotModelFromDomain(l *inventory.SupplierStockLot) *SupplierStockLotModel {
	lvl := l.Level()
	m := &SupplierStockLotModel{
		ItemKind:       l.Item.Kind,
		ItemID:         l.Item.ID,
		SupplierID:     l.SupplierID,
		Quantity:       lvl.Quantity,
		AverageCost:    lvl.AverageCost,
		LastPurchaseAt: l.LastPurchaseAt,
		TotalPurchased: l.TotalPurchased,
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}
