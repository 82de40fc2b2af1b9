package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/pyme/backend/internal/application/finance"
	"github.com/pyme/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles customer payment endpoints
type PaymentHandler struct {
	BaseHandler
	service *financeapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service *financeapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterPaymentRequest is money received from a customer. Without
// invoice_id it is spread over the oldest open invoices first.
type RegisterPaymentRequest struct {
	CustomerID string          `json:"customer_id" binding:"required,uuid"`
	InvoiceID  string          `json:"invoice_id" binding:"omitempty,uuid"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" binding:"omitempty,oneof=CASH TRANSFER CHECK"`
	Date       *time.Time      `json:"date"`
	Notes      string          `json:"notes" binding:"max=500"`
}

// RegisterRoutes mounts the payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.Register)
	rg.GET("/payments/:id", h.Get)
}

// Register records a payment and applies it to invoices.
// POST /api/v1/payments
func (h *PaymentHandler) Register(c *gin.Context) {
	userID, ok := h.actor(c)
	if !ok {
		return
	}
	var req RegisterPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	in := financeapp.RegisterPaymentInput{
		CustomerID: uuid.MustParse(req.CustomerID),
		Amount:     req.Amount,
		Method:     sales.PaymentMethod(req.Method),
		Date:       req.Date,
		Notes:      req.Notes,
	}
	if in.Method == "" {
		in.Method = sales.PaymentMethodCash
	}
	if req.InvoiceID != "" {
		id := uuid.MustParse(req.InvoiceID)
		in.InvoiceID = &id
	}

	resp, err := h.service.RegisterPayment(c.Request.Context(), userID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a payment with its allocations
// GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
