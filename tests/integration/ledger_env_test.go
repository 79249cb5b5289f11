//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	catalogapp "github.com/erp/tradeledger/internal/application/catalog"
	partnerapp "github.com/erp/tradeledger/internal/application/partner"
	tradeapp "github.com/erp/tradeledger/internal/application/trade"
	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/infrastructure/persistence"
	"github.com/erp/tradeledger/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ledgerEnv wires the services over a TestDB the way cmd/server does
type ledgerEnv struct {
	db    *TestDB
	scope *persistence.GormTransactionScope

	productRepo  *persistence.GormProductRepository
	supplierRepo *persistence.GormSupplierRepository
	customerRepo *persistence.GormCustomerRepository

	products        *catalogapp.ProductService
	suppliers       *partnerapp.SupplierService
	customers       *partnerapp.CustomerService
	purchaseOrders  *tradeapp.PurchaseOrderService
	salesOrders     *tradeapp.SalesOrderService
	purchaseReturns *tradeapp.PurchaseReturnService
	salesReturns    *tradeapp.SalesReturnService
}

func newLedgerEnv(tdb *TestDB, opts ...persistence.ScopeOption) *ledgerEnv {
	db := tdb.DB
	opts = append([]persistence.ScopeOption{persistence.WithTxTimeout(tdb.Config.TxTimeout)}, opts...)
	scope := persistence.NewGormTransactionScope(db, opts...)
	env := &ledgerEnv{
		db:           tdb,
		scope:        scope,
		productRepo:  persistence.NewGormProductRepository(db),
		supplierRepo: persistence.NewGormSupplierRepository(db),
		customerRepo: persistence.NewGormCustomerRepository(db),
	}
	env.products = catalogapp.NewProductService(env.productRepo, scope)
	env.suppliers = partnerapp.NewSupplierService(env.supplierRepo, scope)
	env.customers = partnerapp.NewCustomerService(env.customerRepo, scope)
	env.purchaseOrders = tradeapp.NewPurchaseOrderService(persistence.NewGormPurchaseOrderRepository(db), scope)
	env.salesOrders = tradeapp.NewSalesOrderService(persistence.NewGormSalesOrderRepository(db), scope)
	env.purchaseReturns = tradeapp.NewPurchaseReturnService(persistence.NewGormPurchaseReturnRepository(db), scope)
	env.salesReturns = tradeapp.NewSalesReturnService(persistence.NewGormSalesReturnRepository(db), scope)
	return env
}

// seedProduct stores a product with an opening stock valued at cost
func (e *ledgerEnv) seedProduct(t *testing.T, code, stock, cost, sellingPrice string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(code, "Product "+code, "pcs",
		testutil.Dec(cost), testutil.Dec(sellingPrice), decimal.Zero, time.Now().UTC())
	require.NoError(t, err)
	p.Stock = testutil.Dec(stock)
	p.CostPrice = testutil.Dec(cost)
	require.NoError(t, e.productRepo.Create(context.Background(), p))
	return p
}

func (e *ledgerEnv) seedSupplier(t *testing.T, limit string) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier("SUP"+uuid.NewString()[:8], "Supplier", testutil.Dec(limit), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, e.supplierRepo.Create(context.Background(), s))
	return s
}

func (e *ledgerEnv) seedCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer("CUS"+uuid.NewString()[:8], "Walk-in", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, e.customerRepo.Create(context.Background(), c))
	return c
}

func (e *ledgerEnv) product(t *testing.T, id uuid.UUID) *catalog.Product {
	t.Helper()
	p, err := e.productRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func saleOf(customerID uuid.UUID, product *catalog.Product, qty string) tradeapp.CreateSalesOrderRequest {
	return tradeapp.CreateSalesOrderRequest{
		CustomerID:    customerID,
		PaymentType:   "DOWN_PAYMENT",
		PaymentMethod: "CASH",
		ProductDetails: []tradeapp.SalesOrderProductRequest{
			{ProductID: product.ID, SellingPrice: product.SellingPrice, Quantity: testutil.Dec(qty)},
		},
	}
}
