package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/pyme/backend/internal/application/catalog"
	financeapp "github.com/pyme/backend/internal/application/finance"
	purchasingapp "github.com/pyme/backend/internal/application/purchasing"
	salesapp "github.com/pyme/backend/internal/application/sales"
	undoapp "github.com/pyme/backend/internal/application/undo"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/pyme/backend/internal/domain/undo"
	"github.com/pyme/backend/internal/infrastructure/persistence"
	"github.com/pyme/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/pyme/backend/internal/interfaces/http/dto"
	"github.com/pyme/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	scope := persistence.NewGormTransactionScope(persistencetest.NewSQLiteDB(t))
	log := zap.NewNop()

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.JWTAuth(middleware.JWTMiddlewareConfig{Disabled: true}))
	group := engine.Group("/api/v1")
	for _, r := range []interface{ RegisterRoutes(*gin.RouterGroup) }{
		NewCatalogHandler(catalogapp.NewCatalogService(scope)),
		NewSaleHandler(salesapp.NewSaleService(scope, decimal.RequireFromString("0.21"), log)),
		NewPurchaseHandler(purchasingapp.NewPurchaseService(scope, log)),
		NewPaymentHandler(financeapp.NewPaymentService(scope, log)),
		NewUndoHandler(undoapp.NewUndoService(scope, undo.DefaultWindow, log)),
	} {
		r.RegisterRoutes(group)
	}
	return &api{t: t, engine: engine}
}

func (a *api) do(method, path string, user uuid.UUID, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, user.String())
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *api) create(path string, user uuid.UUID, body any, out any) {
	a.t.Helper()
	code, env := a.do(http.MethodPost, path, user, body)
	require.Equal(a.t, http.StatusCreated, code, "%+v", env.Error)
	require.NoError(a.t, json.Unmarshal(env.Data, out))
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestAPI_SalePaymentUndoFlow(t *testing.T) {
	a := newAPI(t)
	user := uuid.New()

	var customer catalogapp.PartyResponse
	a.create("/customers", user, gin.H{"code": "c-01", "name": "Almacen Ana"}, &customer)
	assert.Equal(t, "C-01", customer.Code)

	var supplier catalogapp.PartyResponse
	a.create("/suppliers", user, gin.H{"code": "s-01", "name": "Lacteos Sur"}, &supplier)

	var product catalogapp.StockItemResponse
	a.create("/products", user, gin.H{"code": "qso", "name": "Queso", "sale_price": "10"}, &product)
	assert.True(t, product.Quantity.IsZero())

	var purchase purchasingapp.PurchaseResponse
	a.create("/purchases", user, gin.H{
		"supplier_id": supplier.ID,
		"lines": []gin.H{
			{"item_kind": "PRODUCT", "item_id": product.ID, "quantity": "5", "unit_price": "4"},
			{"description": "Flete", "quantity": "1", "unit_price": "3"},
		},
	}, &purchase)
	assert.Equal(t, "23", purchase.Total.String())

	code, env := a.do(http.MethodGet, "/products/"+product.ID.String(), user, nil)
	require.Equal(t, http.StatusOK, code)
	stocked := decode[catalogapp.StockItemResponse](t, env)
	assert.Equal(t, "5", stocked.Quantity.String())
	assert.Equal(t, "4", stocked.AverageCost.String())

	var invoice salesapp.InvoiceResponse
	a.create("/sales", user, gin.H{
		"customer_id": customer.ID,
		"lines":       []gin.H{{"product_id": product.ID, "quantity": "2"}},
	}, &invoice)
	assert.Equal(t, "20", invoice.Total.String())

	code, env = a.do(http.MethodPost, "/sales", user, gin.H{
		"customer_id": customer.ID,
		"lines":       []gin.H{{"product_id": product.ID, "quantity": "10"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, shared.CodeInsufficientStock, env.Error.Code)

	var payment financeapp.PaymentResponse
	a.create("/payments", user, gin.H{"customer_id": customer.ID, "amount": "15", "method": "TRANSFER"}, &payment)
	require.Len(t, payment.Allocations, 1)
	assert.Equal(t, invoice.ID, payment.Allocations[0].InvoiceID)
	assert.Equal(t, "15", payment.Allocated.String())

	code, env = a.do(http.MethodGet, "/undo/availability", user, nil)
	require.Equal(t, http.StatusOK, code)
	avail := decode[undoapp.Availability](t, env)
	assert.True(t, avail.Available)
	assert.Equal(t, undo.KindRegisterPayment, avail.Kind)
	require.NotNil(t, avail.ExpiresAt)
	assert.WithinDuration(t, avail.CreatedAt.Add(undo.DefaultWindow), *avail.ExpiresAt, time.Second)

	code, env = a.do(http.MethodPost, "/undo", user, nil)
	require.Equal(t, http.StatusOK, code, "%+v", env.Error)
	result := decode[undo.Result](t, env)
	assert.True(t, result.Success)
	assert.Equal(t, undo.KindRegisterPayment, result.Kind)

	code, env = a.do(http.MethodGet, "/sales/"+invoice.ID.String(), user, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[salesapp.InvoiceResponse](t, env).AmountPaid.IsZero())

	code, env = a.do(http.MethodGet, "/payments/"+payment.ID.String(), user, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[financeapp.PaymentResponse](t, env).Voided)

	code, env = a.do(http.MethodGet, "/undo/history?limit=2", user, nil)
	require.Equal(t, http.StatusOK, code)
	history := decode[[]undoapp.HistoryEntry](t, env)
	require.Len(t, history, 2)
	assert.Equal(t, undo.KindRegisterPayment, history[0].Kind)
	assert.Equal(t, &dto.Meta{Count: 2, Limit: 2}, env.Meta)

	code, env = a.do(http.MethodPost, "/undo", uuid.New(), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, shared.CodeNoUndoableAction, env.Error.Code)
}

func TestAPI_Errors(t *testing.T) {
	a := newAPI(t)
	user := uuid.New()

	t.Run("binding failure lists fields", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/sales", user, gin.H{"lines": []gin.H{}})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		assert.NotEmpty(t, env.Error.Details)
		assert.NotEmpty(t, env.Error.RequestID)
	})

	t.Run("domain validation", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/sales", user, gin.H{
			"customer_id": uuid.New(),
			"lines":       []gin.H{{"product_id": uuid.New(), "quantity": "-1"}},
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, shared.CodeValidation, env.Error.Code)
	})

	t.Run("unknown customer", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/sales", user, gin.H{
			"customer_id": uuid.New(),
			"lines":       []gin.H{{"product_id": uuid.New(), "quantity": "1"}},
		})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, shared.CodeNotFound, env.Error.Code)
	})

	t.Run("bad path id", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/sales/not-a-uuid", user, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
	})

	t.Run("missing invoice", func(t *testing.T) {
		code, _ := a.do(http.MethodGet, "/sales/"+uuid.NewString(), user, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("duplicate code", func(t *testing.T) {
		var first catalogapp.PartyResponse
		a.create("/customers", user, gin.H{"code": "dup", "name": "Uno"}, &first)

		code, env := a.do(http.MethodPost, "/customers", user, gin.H{"code": "DUP", "name": "Dos"})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, shared.CodeAlreadyExists, env.Error.Code)
	})

	t.Run("half a stock reference", func(t *testing.T) {
		code, _ := a.do(http.MethodPost, "/purchases", user, gin.H{
			"supplier_id": uuid.New(),
			"lines":       []gin.H{{"item_kind": "PRODUCT", "quantity": "1", "unit_price": "1"}},
		})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("history limit out of range", func(t *testing.T) {
		code, _ := a.do(http.MethodGet, "/undo/history?limit=500", user, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("nothing to undo", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/undo/availability", uuid.New(), nil)
		assert.Equal(t, http.StatusOK, code)
		assert.False(t, decode[undoapp.Availability](t, env).Available)
	})
}

type failingPinger struct{}

func (failingPinger) Ping() error { return assert.AnError }

func TestHealth(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", NewHealthHandler(failingPinger{}, "1.0.0").Health)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "degraded", decode[HealthStatus](t, env).Status)
}
