package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/pyme/backend/internal/application/catalog"
	"github.com/pyme/backend/internal/domain/inventory"
)

// CatalogHandler handles master data: customers, suppliers, products and
// raw materials.
type CatalogHandler struct {
	BaseHandler
	service *catalogapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(service *catalogapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes mounts the master data routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/customers", h.CreateCustomer)
	rg.GET("/customers/:id", h.GetCustomer)
	rg.POST("/suppliers", h.CreateSupplier)
	rg.GET("/suppliers/:id", h.GetSupplier)
	rg.POST("/products", h.CreateProduct)
	rg.GET("/products/:id", h.stockItem(inventory.StockKindProduct))
	rg.POST("/raw-materials", h.CreateRawMaterial)
	rg.GET("/raw-materials/:id", h.stockItem(inventory.StockKindRawMaterial))
}

// CreateCustomer POST /api/v1/customers
func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	var req catalogapp.CreatePartyRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetCustomer GET /api/v1/customers/:id
func (h *CatalogHandler) GetCustomer(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateSupplier POST /api/v1/suppliers
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req catalogapp.CreatePartyRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetSupplier GET /api/v1/suppliers/:id
func (h *CatalogHandler) GetSupplier(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetSupplier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateProduct POST /api/v1/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CreateRawMaterial POST /api/v1/raw-materials
func (h *CatalogHandler) CreateRawMaterial(c *gin.Context) {
	var req catalogapp.CreateRawMaterialRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.CreateRawMaterial(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

func (h *CatalogHandler) stockItem(kind inventory.StockKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		resp, err := h.service.GetStockItem(c.Request.Context(), inventory.StockItemRef{Kind: kind, ID: id})
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
	}
}
