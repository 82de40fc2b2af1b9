package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pyme/backend/internal/interfaces/http/handler"
	"github.com/pyme/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

type echoRoutes struct{}

func (echoRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/whoami", func(c *gin.Context) {
		id, _ := middleware.GetUserID(c)
		c.String(http.StatusOK, id.String())
	})
	rg.GET("/boom", func(c *gin.Context) { panic("boom") })
}

func newTestEngine(db handler.Pinger) *gin.Engine {
	return NewEngine(Options{
		ServiceName: "pyme-test",
		Meter:       sdkmetric.NewMeterProvider().Meter("test"),
		CORS:        middleware.DefaultCORSConfig(),
		Auth:        middleware.JWTMiddlewareConfig{Disabled: true},
	}, handler.NewHealthHandler(db, "test"), echoRoutes{})
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	r.Register(echoRoutes{})

	assert.Equal(t, "v2", r.apiVersion)
	assert.Len(t, r.registrars, 1)
}

func TestNewEngine(t *testing.T) {
	engine := newTestEngine(pinger{})

	t.Run("health needs no user", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
	})

	t.Run("api routes need a user", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("api routes see the user", func(t *testing.T) {
		userID := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set(middleware.UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), w.Body.String())
	})

	t.Run("panics become 500 envelopes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil)
		req.Header.Set(middleware.UserIDHeader, uuid.NewString())
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})
}

func TestNewEngine_DatabaseDown(t *testing.T) {
	engine := newTestEngine(pinger{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
