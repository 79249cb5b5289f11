package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/tradeledger/internal/application/catalog"
	partnerapp "github.com/erp/tradeledger/internal/application/partner"
	tradeapp "github.com/erp/tradeledger/internal/application/trade"
	"github.com/erp/tradeledger/internal/infrastructure/auth"
	"github.com/erp/tradeledger/internal/infrastructure/cache"
	"github.com/erp/tradeledger/internal/infrastructure/config"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/erp/tradeledger/internal/infrastructure/persistence"
	"github.com/erp/tradeledger/internal/infrastructure/telemetry"
	"github.com/erp/tradeledger/internal/interfaces/http/handler"
	"github.com/erp/tradeledger/internal/interfaces/http/middleware"
	"github.com/erp/tradeledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tel, err := setupTelemetry(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer tel.shutdown(log)
	log = logger.Tee(log, tel.logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))

	log.Info("Starting trade ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("driver", cfg.Database.Driver),
		zap.String("sequence", cfg.Sequence.Backend),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Database.SlowQuery)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	if err := db.EnableTracing(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.Driver), log); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}

	// Postgres schemas are owned by cmd/migrate; an embedded store is built in place.
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite store", zap.Error(err))
		}
	}

	scopeOpts := []persistence.ScopeOption{
		persistence.WithTxTimeout(cfg.Database.TxTimeout),
		persistence.WithCodeWidth(cfg.Sequence.PadWidth),
	}
	if cfg.Sequence.Backend == config.SequenceRedis {
		client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		seq := cache.NewRedisSequence(client,
			persistence.NewGormCodeSequence(db.DB, cfg.Sequence.PadWidth).Current,
			cfg.Sequence.PadWidth)
		defer func() {
			_ = seq.Close()
		}()
		scopeOpts = append(scopeOpts, persistence.WithCodeGenerator(seq))
		log.Info("Document codes served from redis", zap.String("addr", cfg.Redis.Addr()))
	}
	scope := persistence.NewGormTransactionScope(db.DB, scopeOpts...)

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	purchaseReturnRepo := persistence.NewGormPurchaseReturnRepository(db.DB)
	salesReturnRepo := persistence.NewGormSalesReturnRepository(db.DB)

	// Services
	productService := catalogapp.NewProductService(productRepo, scope)
	supplierService := partnerapp.NewSupplierService(supplierRepo, scope)
	customerService := partnerapp.NewCustomerService(customerRepo, scope)
	purchaseOrderService := tradeapp.NewPurchaseOrderService(purchaseOrderRepo, scope)
	salesOrderService := tradeapp.NewSalesOrderService(salesOrderRepo, scope)
	purchaseReturnService := tradeapp.NewPurchaseReturnService(purchaseReturnRepo, scope)
	salesReturnService := tradeapp.NewSalesReturnService(salesReturnRepo, scope)

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		Auth:           auth.NewJWTService(cfg.JWT),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RequestTimeout: cfg.HTTP.WriteTimeout,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tel.traces.IsEnabled(),
		},
		HTTPMetrics: tel.http,
	}, router.Handlers{
		System:          handler.NewSystemHandler(db, version),
		Products:        handler.NewProductHandler(productService),
		Suppliers:       handler.NewSupplierHandler(supplierService),
		Customers:       handler.NewCustomerHandler(customerService),
		PurchaseOrders:  handler.NewPurchaseOrderHandler(purchaseOrderService),
		SalesOrders:     handler.NewSalesOrderHandler(salesOrderService),
		PurchaseReturns: handler.NewPurchaseReturnHandler(purchaseReturnService),
		SalesReturns:    handler.NewSalesReturnHandler(salesReturnService),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

type telemetryProviders struct {
	traces  *telemetry.TracerProvider
	metrics *telemetry.MeterProvider
	logs    *telemetry.LoggerProvider
	http    *telemetry.HTTPMetrics
}

// setupTelemetry builds the trace, metric and log providers. Disabled
// signals get no-op providers.
func setupTelemetry(ctx context.Context, cfg config.TelemetryConfig, log *zap.Logger) (*telemetryProviders, error) {
	traces, err := telemetry.NewTracerProvider(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	metrics, err := telemetry.NewMeterProvider(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	logs, err := telemetry.NewLoggerProvider(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	p := &telemetryProviders{traces: traces, metrics: metrics, logs: logs}
	if metrics.IsEnabled() {
		if p.http, err = telemetry.NewHTTPMetrics(metrics.Meter(telemetry.TracerName)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *telemetryProviders) shutdown(log *zap.Logger) {
	ctx := context.Background()
	if err := p.traces.Shutdown(ctx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := p.metrics.Shutdown(ctx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := p.logs.Shutdown(ctx); err != nil {
		log.Error("Logger provider shutdown failed", zap.Error(err))
	}
}
