package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	purchasingapp "github.com/pyme/backend/internal/application/purchasing"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// PurchaseHandler handles supplier delivery endpoints
type PurchaseHandler struct {
	BaseHandler
	service *purchasingapp.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(service *purchasingapp.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// PurchaseLineRequest is one delivered line. Without item_kind and item_id
// the line is a plain charge that touches no stock.
type PurchaseLineRequest struct {
	ItemKind    string           `json:"item_kind" binding:"omitempty,oneof=PRODUCT RAW_MATERIAL"`
	ItemID      string           `json:"item_id" binding:"omitempty,uuid"`
	Description string           `json:"description" binding:"max=255"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Weight      decimal.Decimal  `json:"weight"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	LineTotal   *decimal.Decimal `json:"line_total"`
}

// CreatePurchaseRequest represents a request to register a purchase
type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplier_id" binding:"required,uuid"`
	Date       *time.Time            `json:"date"`
	Lines      []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// RegisterRoutes mounts the purchase routes
func (h *PurchaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/purchases", h.Create)
	rg.GET("/purchases/:id", h.Get)
}

// Create registers a purchase, receiving stock at weighted average cost.
// POST /api/v1/purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	userID, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreatePurchaseRequest
	if !bindJSON(c, &req) {
		return
	}

	in := purchasingapp.CreatePurchaseInput{
		SupplierID: uuid.MustParse(req.SupplierID),
		Date:       req.Date,
		Lines:      make([]purchasingapp.PurchaseLineInput, 0, len(req.Lines)),
	}
	for i, l := range req.Lines {
		if (l.ItemKind == "") != (l.ItemID == "") {
			h.BadRequest(c, fmt.Sprintf("lines[%d]: item_kind and item_id go together", i))
			return
		}
		line := purchasingapp.PurchaseLineInput{
			Description: l.Description,
			Quantity:    l.Quantity,
			Weight:      l.Weight,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		}
		if l.ItemKind != "" {
			line.Item = &inventory.StockItemRef{
				Kind: inventory.StockKind(l.ItemKind),
				ID:   uuid.MustParse(l.ItemID),
			}
		}
		in.Lines = append(in.Lines, line)
	}

	resp, err := h.service.CreatePurchase(c.Request.Context(), userID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a purchase with its lines
// GET /api/v1/purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetPurchase(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
