package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CreatePartyRequest creates a customer or supplier.
type CreatePartyRequest struct {
	Code  string `json:"code" binding:"required,min=1,max=50"`
	Name  string `json:"name" binding:"required,min=1,max=200"`
	TaxID string `json:"tax_id" binding:"omitempty,max=20"`
	Phone string `json:"phone" binding:"omitempty,max=50"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
}

// PartyResponse is a customer or supplier.
type PartyResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toPartyResponse(p partner.Party) PartyResponse {
	return PartyResponse{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		TaxID:     p.TaxID,
		Phone:     p.Phone,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
}

// CreateProductRequest creates a product with empty stock.
type CreateProductRequest struct {
	Code      string          `json:"code" binding:"required,min=1,max=50"`
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	SalePrice decimal.Decimal `json:"sale_price"`
}

// CreateRawMaterialRequest creates a raw material with empty stock.
type CreateRawMaterialRequest struct {
	Code string `json:"code" binding:"required,min=1,max=50"`
	Name string `json:"name" binding:"required,min=1,max=200"`
	Unit string `json:"unit" binding:"omitempty,max=20"`
}

// StockItemResponse is a product or raw material with its stock level.
type StockItemResponse struct {
	ID          uuid.UUID           `json:"id"`
	Kind        inventory.StockKind `json:"kind"`
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Unit        string              `json:"unit,omitempty"`
	SalePrice   *decimal.Decimal    `json:"sale_price,omitempty"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Weight      decimal.Decimal     `json:"weight"`
	AverageCost decimal.Decimal     `json:"average_cost"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ToStockItemResponse converts either kind of stock item.
func ToStockItemResponse(item inventory.StockItem) StockItemResponse {
	lvl := item.Level()
	resp := StockItemResponse{
		Kind:        item.Ref().Kind,
		ID:          item.Ref().ID,
		Name:        item.DisplayName(),
		Quantity:    lvl.Quantity,
		Weight:      lvl.Weight,
		AverageCost: lvl.AverageCost,
	}
	switch v := item.(type) {
	case *inventory.Product:
		price := v.SalePrice
		resp.Code = v.Code
		resp.SalePrice = &price
		resp.CreatedAt = v.CreatedAt
	case *inventory.RawMaterial:
		resp.Code = v.Code
		resp.Unit = v.Unit
		resp.CreatedAt = v.CreatedAt
	}
	return resp
}
