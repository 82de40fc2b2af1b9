package models

import (
	"github.com/pyme/backend/internal/domain/partner"
)

// PartyModel holds the columns customers and suppliers share.
type PartyModel struct {
	AggregateModel
	Code  string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name  string `gorm:"type:varchar(200);not null"`
	TaxID string `gorm:"type:varchar(20)"`
	Phone string `gorm:"type:varchar(50)"`
	Email string `gorm:"type:varchar(200)"`
}

func (m *PartyModel) toDomain() partner.Party {
	return partner.Party{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		TaxID:             m.TaxID,
		Phone:             m.Phone,
		Email:             m.Email,
	}
}

func partyModelFromDomain(p partner.Party) PartyModel {
	m := PartyModel{
		Code:  p.Code,
		Name:  p.Name,
		TaxID: p.TaxID,
		Phone: p.Phone,
		Email: p.Email,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	PartyModel
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{Party: m.toDomain()}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	return &CustomerModel{PartyModel: partyModelFromDomain(c.Party)}
}

// SupplierModel is the persistence model for the Supplier domain entity.
type SupplierModel struct {
	PartyModel
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier entity.
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{Party: m.toDomain()}
}

// SupplierModelFromDomain creates a persistence model from a domain Supplier entity.
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	return &SupplierModel{PartyModel: partyModelFromDomain(s.Party)}
}
