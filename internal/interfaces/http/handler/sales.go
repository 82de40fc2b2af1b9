package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/pyme/backend/internal/application/sales"
	"github.com/shopspring/decimal"
)

// SaleHandler handles invoicing endpoints
type SaleHandler struct {
	BaseHandler
	service *salesapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(service *salesapp.SaleService) *SaleHandler {
	return &SaleHandler{service: service}
}

// SaleLineRequest is one sold product. Weight is in kilograms; when given
// the line is priced per kilogram. UnitPrice defaults to the product price.
type SaleLineRequest struct {
	ProductID string           `json:"product_id" binding:"required,uuid"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Weight    decimal.Decimal  `json:"weight"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest represents a request to create a sale
type CreateSaleRequest struct {
	CustomerID  string            `json:"customer_id" binding:"required,uuid"`
	Date        *time.Time        `json:"date"`
	IncludesTax bool              `json:"includes_tax"`
	Lines       []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// RegisterRoutes mounts the sales routes
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sales", h.Create)
	rg.GET("/sales/:id", h.Get)
}

// Create records a sale, deducting stock and recording an undo action.
// POST /api/v1/sales
func (h *SaleHandler) Create(c *gin.Context) {
	userID, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	in := salesapp.CreateSaleInput{
		CustomerID:  uuid.MustParse(req.CustomerID),
		Date:        req.Date,
		IncludesTax: req.IncludesTax,
		Lines:       make([]salesapp.SaleLineInput, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, salesapp.SaleLineInput{
			ProductID: uuid.MustParse(l.ProductID),
			Quantity:  l.Quantity,
			Weight:    l.Weight,
			UnitPrice: l.UnitPrice,
		})
	}

	resp, err := h.service.CreateSale(c.Request.Context(), userID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns an invoice with its lines
// GET /api/v1/sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
