package router

import (
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/erp/tradeledger/internal/infrastructure/telemetry"
	"github.com/erp/tradeledger/internal/interfaces/http/handler"
	"github.com/erp/tradeledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler the API serves
type Handlers struct {
	System          *handler.SystemHandler
	Products        *handler.ProductHandler
	Suppliers       *handler.SupplierHandler
	Customers       *handler.CustomerHandler
	PurchaseOrders  *handler.PurchaseOrderHandler
	SalesOrders     *handler.SalesOrderHandler
	PurchaseReturns *handler.PurchaseReturnHandler
	SalesReturns    *handler.SalesReturnHandler
}

// EngineConfig holds the transport settings of the engine
type EngineConfig struct {
	Logger         *zap.Logger
	Auth           middleware.TokenValidator
	MaxBodySize    int64
	RequestTimeout time.Duration
	CORSOrigins    []string
	TrustedProxies []string
	// Tracing wraps every request in a server span when enabled
	Tracing middleware.TracingConfig
	// HTTPMetrics is nil when metrics are off
	HTTPMetrics *telemetry.HTTPMetrics
}

// NewEngine builds the gin engine: global middleware, /health, and the
// authenticated /api/v1 surface.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.Tracing)...)
	engine.Use(
		middleware.Metrics(cfg.HTTPMetrics),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins...)),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)

	auth := middleware.DefaultJWTConfig(cfg.Auth)
	auth.Logger = log
	r := NewRouter(engine, WithMiddleware(
		middleware.JWTAuthWithConfig(auth),
		middleware.Timeout(cfg.RequestTimeout),
	))
	r.Register(apiGroups(h)...)
	r.Setup()

	return engine, nil
}

func apiGroups(h Handlers) []RouteRegistrar {
	adminOnly := middleware.RequireRole(shared.RoleAdmin)

	products := NewDomainGroup("products", "/products").
		GET("", h.Products.List).
		POST("", h.Products.Create).
		GET("/:id", h.Products.GetByID)

	suppliers := NewDomainGroup("suppliers", "/suppliers").
		GET("", h.Suppliers.List).
		POST("", h.Suppliers.Create).
		GET("/:id", h.Suppliers.GetByID)

	customers := NewDomainGroup("customers", "/customers").
		GET("", h.Customers.List).
		POST("", h.Customers.Create).
		GET("/:id", h.Customers.GetByID)

	purchaseOrders := NewDomainGroup("purchase-orders", "/purchase-orders").
		GET("", h.PurchaseOrders.List).
		POST("", h.PurchaseOrders.Create).
		GET("/:id", h.PurchaseOrders.GetByID).
		PUT("/:id", h.PurchaseOrders.Update).
		DELETE("/:id", h.PurchaseOrders.Delete).
		POST("/:id/finish", h.PurchaseOrders.Finish).
		POST("/:id/cancel", adminOnly, h.PurchaseOrders.Cancel).
		POST("/:id/pay", h.PurchaseOrders.Pay)

	salesOrders := NewDomainGroup("sales-orders", "/sales-orders").
		GET("", h.SalesOrders.List).
		POST("", h.SalesOrders.Create).
		GET("/:id", h.SalesOrders.GetByID).
		PUT("/:id", h.SalesOrders.Update).
		DELETE("/:id", h.SalesOrders.Delete).
		POST("/:id/finish", h.SalesOrders.Finish).
		POST("/:id/cancel", adminOnly, h.SalesOrders.Cancel).
		POST("/:id/pay", h.SalesOrders.Pay)

	purchaseReturns := NewDomainGroup("purchase-returns", "/purchase-returns").
		GET("", h.PurchaseReturns.List).
		POST("", h.PurchaseReturns.Create).
		GET("/:id", h.PurchaseReturns.GetByID).
		POST("/:id/finish", h.PurchaseReturns.Finish).
		POST("/:id/cancel", adminOnly, h.PurchaseReturns.Cancel)

	salesReturns := NewDomainGroup("sales-returns", "/sales-returns").
		GET("", h.SalesReturns.List).
		POST("", h.SalesReturns.Create).
		GET("/:id", h.SalesReturns.GetByID).
		POST("/:id/cancel", adminOnly, h.SalesReturns.Cancel)

	return []RouteRegistrar{
		products, suppliers, customers,
		purchaseOrders, salesOrders,
		purchaseReturns, salesReturns,
	}
}
