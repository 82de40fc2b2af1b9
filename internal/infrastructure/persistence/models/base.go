package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with the aggregate version.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// ToDomainAggregateRoot converts AggregateModel to domain BaseAggregateRoot
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain(), Version: m.Version}
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// VoidModel holds the void columns shared by invoices, purchases and payments.
type VoidModel struct {
	Voided     bool       `gorm:"not null;default:false;index"`
	VoidedAt   *time.Time
	VoidReason string     `gorm:"type:varchar(255)"`
	VoidedBy   *uuid.UUID `gorm:"type:uuid"`
}

// ToDomain converts VoidModel to domain Voidable
func (m VoidModel) ToDomain() shared.Voidable {
	return shared.Voidable{Voided: m.Voided, VoidedAt: m.VoidedAt, VoidReason: m.VoidReason, VoidedBy: m.VoidedBy}
}

// VoidModelFromDomain converts domain Voidable to VoidModel
func VoidModelFromDomain(v shared.Voidable) VoidModel {
	return VoidModel{Voided: v.Voided, VoidedAt: v.VoidedAt, VoidReason: v.VoidReason, VoidedBy: v.VoidedBy}
}
