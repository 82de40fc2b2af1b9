package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/purchasing"
	"github.com/shopspring/decimal"
)

// PurchaseModel is the persistence model for the Purchase aggregate root.
type PurchaseModel struct {
	AggregateModel
	VoidModel
	Number     int64               `gorm:"not null;uniqueIndex"`
	SupplierID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Date       time.Time           `gorm:"not null;index"`
	Total      decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	MovementID *uuid.UUID          `gorm:"type:uuid"`
	CreatedBy  uuid.UUID           `gorm:"type:uuid;not null"`
	Lines      []PurchaseLineModel `gorm:"foreignKey:PurchaseID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "purchases"
}

// PurchaseLineModel is the persistence model for a purchase line. Item
// columns are null for non-stock lines.
type PurchaseLineModel struct {
	BaseModel
	PurchaseID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	Position    int                  `gorm:"not null;default:0"`
	ItemKind    *inventory.StockKind `gorm:"type:varchar(20);index:idx_purchase_line_item,priority:1"`
	ItemID      *uuid.UUID           `gorm:"type:uuid;index:idx_purchase_line_item,priority:2"`
	Description string               `gorm:"type:varchar(255)"`
	Quantity    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Weight      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice   decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Subtotal    decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (PurchaseLineModel) TableName() string {
	return "purchase_lines"
}

// ToDomain converts the persistence model to a domain Purchase.
func (m *PurchaseModel) ToDomain() *purchasing.Purchase {
	p := &purchasing.Purchase{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Voidable:          m.VoidModel.ToDomain(),
		Number:            m.Number,
		SupplierID:        m.SupplierID,
		Date:              m.Date,
		Total:             m.Total,
		MovementID:        m.MovementID,
		CreatedBy:         m.CreatedBy,
	}
	for _, l := range m.Lines {
		line := purchasing.PurchaseLine{
			BaseEntity:  l.BaseModel.ToDomain(),
			PurchaseID:  l.PurchaseID,
			Description: l.Description,
			Quantity:    l.Quantity,
			Weight:      l.Weight,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		}
		if l.ItemKind != nil && l.ItemID != nil {
			line.Item = &inventory.StockItemRef{Kind: *l.ItemKind, ID: *l.ItemID}
		}
		p.Lines = append(p.Lines, line)
	}
	return p
}

// PurchaseModelFromDomain creates a persistence model from a domain Purchase.
func PurchaseModelFromDomain(p *purchasing.Purchase) *PurchaseModel {
	m := &PurchaseModel{
		VoidModel:  VoidModelFromDomain(p.Voidable),
		Number:     p.Number,
		SupplierID: p.SupplierID,
		Date:       p.Date,
		Total:      p.Total,
		MovementID: p.MovementID,
		CreatedBy:  p.CreatedBy,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	for i, l := range p.Lines {
		line := PurchaseLineModel{
			PurchaseID:  p.ID,
			Position:    i,
			Description: l.Description,
			Quantity:    l.Quantity,
			Weight:      l.Weight,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		}
		if l.Item != nil {
			kind, id := l.Item.Kind, l.Item.ID
			line.ItemKind, line.ItemID = &kind, &id
		}
		line.FromDomainBaseEntity(l.BaseEntity)
		m.Lines = append(m.Lines, line)
	}
	return m
}
