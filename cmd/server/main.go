package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/pyme/backend/internal/application/catalog"
	financeapp "github.com/pyme/backend/internal/application/finance"
	purchasingapp "github.com/pyme/backend/internal/application/purchasing"
	salesapp "github.com/pyme/backend/internal/application/sales"
	undoapp "github.com/pyme/backend/internal/application/undo"
	"github.com/pyme/backend/internal/infrastructure/auth"
	"github.com/pyme/backend/internal/infrastructure/config"
	"github.com/pyme/backend/internal/infrastructure/lock"
	"github.com/pyme/backend/internal/infrastructure/logger"
	"github.com/pyme/backend/internal/infrastructure/persistence"
	"github.com/pyme/backend/internal/infrastructure/telemetry"
	"github.com/pyme/backend/internal/interfaces/http/handler"
	"github.com/pyme/backend/internal/interfaces/http/middleware"
	"github.com/pyme/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(baseLog)

	ctx := context.Background()

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	level, _ := logger.ParseLevel(cfg.Log.Level)
	log := telemetry.BridgeLogger(baseLog, cfg.Telemetry.ServiceName, logsProvider, level)

	log.Info("Starting Pyme Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(
		logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh),
	))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
		log.Info("Schema migrated from models")
	}
	log.Info("Database connected successfully")

	scope := persistence.NewGormTransactionScope(db.DB)

	var meter metric.Meter
	var businessMetrics *telemetry.BusinessMetrics
	if meterProvider.IsEnabled() {
		meter = meterProvider.Meter("pyme-backend")
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:           meter,
			Logger:          log,
			CollectInterval: time.Minute,
			Backlog:         persistence.NewGormUndoActionRepository(db.DB),
			UndoWindow:      cfg.Undo.Window,
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
	}

	saleService := salesapp.NewSaleService(scope, cfg.Sales.TaxRate, log)
	saleService.SetBusinessMetrics(businessMetrics)
	purchaseService := purchasingapp.NewPurchaseService(scope, log)
	purchaseService.SetBusinessMetrics(businessMetrics)
	paymentService := financeapp.NewPaymentService(scope, log)
	paymentService.SetBusinessMetrics(businessMetrics)
	undoService := undoapp.NewUndoService(scope, cfg.Undo.Window, log)
	undoService.SetBusinessMetrics(businessMetrics)
	catalogService := catalogapp.NewCatalogService(scope)

	if cfg.Redis.Enabled() {
		redisClient, err := lock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		undoService.SetLocker(lock.NewRedisLocker(redisClient, cfg.Undo.LockTTL))
		log.Info("Per-user undo lock enabled", zap.String("redis_addr", cfg.Redis.Addr))
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWT.Disabled {
		log.Warn("JWT authentication disabled, trusting the X-User-ID header")
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine := router.NewEngine(router.Options{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          meter,
		CORS:           cors,
		Auth: middleware.JWTMiddlewareConfig{
			Validator: auth.NewJWTService(cfg.JWT),
			Disabled:  cfg.JWT.Disabled,
		},
	},
		handler.NewHealthHandler(db, cfg.App.Version),
		handler.NewCatalogHandler(catalogService),
		handler.NewSaleHandler(saleService),
		handler.NewPurchaseHandler(purchaseService),
		handler.NewPaymentHandler(paymentService),
		handler.NewUndoHandler(undoService),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	businessMetrics.StartPeriodicCollection(metricsCtx, time.Minute)

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	stopMetrics()
	businessMetrics.Stop()
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
