// Package router assembles the gin engine: middleware chain, health check
// and the versioned API group.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pyme/backend/internal/infrastructure/logger"
	"github.com/pyme/backend/internal/interfaces/http/handler"
	"github.com/pyme/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithGroupMiddleware adds middleware that runs on API routes only.
func WithGroupMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	api.Use(r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Options configures the engine built by NewEngine.
type Options struct {
	Logger         *zap.Logger
	ServiceName    string
	TracingEnabled bool
	// Meter enables HTTP metrics when set.
	Meter        metric.Meter
	CORS         middleware.CORSConfig
	Auth         middleware.JWTMiddlewareConfig
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 1 << 20

// NewEngine builds the gin engine. Every request gets recovery, a request
// id, a server span, an access log line, metrics and CORS. API routes also
// require an authenticated user; /health does not.
func NewEngine(opts Options, health *handler.HealthHandler, registrars ...RouteRegistrar) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Auth.Logger == nil {
		opts.Auth.Logger = log
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(opts.ServiceName, opts.TracingEnabled),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(opts.Meter, log),
		middleware.CORSWithConfig(opts.CORS),
		middleware.BodyLimit(opts.MaxBodyBytes),
	)

	engine.GET("/health", health.Health)

	r := NewRouter(engine, WithGroupMiddleware(
		middleware.JWTAuth(opts.Auth),
		middleware.TagSpan(),
	))
	for _, reg := range registrars {
		r.Register(reg)
	}
	r.Setup()
	return engine
}
