package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// FinancialMovementModel is the persistence model for a ledger row.
type FinancialMovementModel struct {
	AggregateModel
	Type          finance.MovementType   `gorm:"type:varchar(20);not null;index"`
	Origin        finance.MovementOrigin `gorm:"type:varchar(20);not null;index:idx_movement_origin,priority:1"`
	OriginID      *uuid.UUID             `gorm:"type:uuid;index:idx_movement_origin,priority:2"`
	State         finance.MovementState  `gorm:"type:varchar(20);not null;index"`
	Amount        decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	AmountPaid    decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentMethod string                 `gorm:"type:varchar(20)"`
	Description   string                 `gorm:"type:varchar(500)"`
	Date          time.Time              `gorm:"not null"`
	CancelledAt   *time.Time
	CreatedBy     uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (FinancialMovementModel) TableName() string {
	return "financial_movements"
}

// ToDomain converts the persistence model to a domain FinancialMovement.
func (m *FinancialMovementModel) ToDomain() *finance.FinancialMovement {
	return &finance.FinancialMovement{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Type:              m.Type,
		Origin:            m.Origin,
		OriginID:          m.OriginID,
		State:             m.State,
		Amount:            m.Amount,
		AmountPaid:        m.AmountPaid,
		PaymentMethod:     m.PaymentMethod,
		Description:       m.Description,
		Date:              m.Date,
		CancelledAt:       m.CancelledAt,
		CreatedBy:         m.CreatedBy,
	}
}

// FinancialMovementModelFromDomain creates a persistence model from a domain FinancialMovement.
func FinancialMovementModelFromDomain(mv *finance.FinancialMovement) *FinancialMovementModel {
	m := &FinancialMovementModel{
		Type:          mv.Type,
		Origin:        mv.Origin,
		OriginID:      mv.OriginID,
		State:         mv.State,
		Amount:        mv.Amount,
		AmountPaid:    mv.AmountPaid,
		PaymentMethod: mv.PaymentMethod,
		Description:   mv.Description,
		Date:          mv.Date,
		CancelledAt:   mv.CancelledAt,
		CreatedBy:     mv.CreatedBy,
	}
	m.FromDomainAggregateRoot(mv.BaseAggregateRoot)
	return m
}
