// Package catalog manages master data: customers, suppliers, products and
// raw materials. Stock levels are never written here.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/uow"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/partner"
	"github.com/pyme/backend/internal/domain/shared"
)

// CatalogService handles master data.
type CatalogService struct {
	scope uow.TransactionScope
	now   uow.Clock
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(scope uow.TransactionScope) *CatalogService {
	return &CatalogService{scope: scope, now: uow.SystemClock}
}

// SetClock replaces the clock used to stamp records.
func (s *CatalogService) SetClock(clock uow.Clock) {
	s.now = clock
}

func alreadyExists(what string) error {
	return shared.NewDomainError(shared.CodeAlreadyExists, what+" with this code already exists")
}

// CreateCustomer creates a customer
func (s *CatalogService) CreateCustomer(ctx context.Context, req CreatePartyRequest) (*PartyResponse, error) {
	var resp PartyResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		exists, err := repos.Customers().ExistsByCode(ctx, req.Code)
		if err != nil {
			return err
		}
		if exists {
			return alreadyExists("Customer")
		}
		c, err := partner.NewCustomer(req.Code, req.Name, s.now())
		if err != nil {
			return err
		}
		c.SetContact(req.TaxID, req.Phone, req.Email)
		if err := repos.Customers().Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save customer: %w", err)
		}
		resp = toPartyResponse(c.Party)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCustomer returns a customer by id
func (s *CatalogService) GetCustomer(ctx context.Context, id uuid.UUID) (*PartyResponse, error) {
	var resp PartyResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		c, err := repos.Customers().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Customer")
			}
			return err
		}
		resp = toPartyResponse(c.Party)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSupplier creates a supplier
func (s *CatalogService) CreateSupplier(ctx context.Context, req CreatePartyRequest) (*PartyResponse, error) {
	var resp PartyResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		exists, err := repos.Suppliers().ExistsByCode(ctx, req.Code)
		if err != nil {
			return err
		}
		if exists {
			return alreadyExists("Supplier")
		}
		sp, err := partner.NewSupplier(req.Code, req.Name, s.now())
		if err != nil {
			return err
		}
		sp.SetContact(req.TaxID, req.Phone, req.Email)
		if err := repos.Suppliers().Save(ctx, sp); err != nil {
			return fmt.Errorf("failed to save supplier: %w", err)
		}
		resp = toPartyResponse(sp.Party)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSupplier returns a supplier by id
func (s *CatalogService) GetSupplier(ctx context.Context, id uuid.UUID) (*PartyResponse, error) {
	var resp PartyResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		sp, err := repos.Suppliers().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Supplier")
			}
			return err
		}
		resp = toPartyResponse(sp.Party)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateProduct creates a product with zero stock
func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*StockItemResponse, error) {
	return s.createItem(ctx, inventory.StockKindProduct, req.Code, func() (inventory.StockItem, error) {
		return inventory.NewProduct(req.Code, req.Name, req.SalePrice, s.now())
	})
}

// CreateRawMaterial creates a raw material with zero stock
func (s *CatalogService) CreateRawMaterial(ctx context.Context, req CreateRawMaterialRequest) (*StockItemResponse, error) {
	return s.createItem(ctx, inventory.StockKindRawMaterial, req.Code, func() (inventory.StockItem, error) {
		return inventory.NewRawMaterial(req.Code, req.Name, req.Unit, s.now())
	})
}

func (s *CatalogService) createItem(ctx context.Context, kind inventory.StockKind, code string, build func() (inventory.StockItem, error)) (*StockItemResponse, error) {
	var resp StockItemResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		exists, err := repos.StockItems().ExistsByCode(ctx, kind, code)
		if err != nil {
			return err
		}
		if exists {
			return alreadyExists(string(kind))
		}
		item, err := build()
		if err != nil {
			return err
		}
		if err := repos.StockItems().Save(ctx, item); err != nil {
			return fmt.Errorf("failed to save stock item: %w", err)
		}
		resp = ToStockItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStockItem returns a product or raw material with its level
func (s *CatalogService) GetStockItem(ctx context.Context, ref inventory.StockItemRef) (*StockItemResponse, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	var resp StockItemResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		item, err := repos.StockItems().FindByRef(ctx, ref)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Stock item")
			}
			return err
		}
		resp = ToStockItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
