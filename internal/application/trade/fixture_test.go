package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/infrastructure/config"
	"github.com/erp/tradeledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances one second per reading so creation times are strictly ordered
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	t        *testing.T
	clock    *fakeClock
	products *persistence.GormProductRepository
	supplies *persistence.GormSupplierRepository
	customer *persistence.GormCustomerRepository
	poRepo   *persistence.GormPurchaseOrderRepository
	soRepo   *persistence.GormSalesOrderRepository
	prRepo   *persistence.GormPurchaseReturnRepository
	srRepo   *persistence.GormSalesReturnRepository

	purchaseOrders  *PurchaseOrderService
	salesOrders     *SalesOrderService
	purchaseReturns *PurchaseReturnService
	salesReturns    *SalesReturnService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	db := database.DB
	scope := persistence.NewGormTransactionScope(db, persistence.WithTxTimeout(5*time.Second))
	f := &fixture{
		t:        t,
		clock:    &fakeClock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)},
		products: persistence.NewGormProductRepository(db),
		supplies: persistence.NewGormSupplierRepository(db),
		customer: persistence.NewGormCustomerRepository(db),
		poRepo:   persistence.NewGormPurchaseOrderRepository(db),
		soRepo:   persistence.NewGormSalesOrderRepository(db),
		prRepo:   persistence.NewGormPurchaseReturnRepository(db),
		srRepo:   persistence.NewGormSalesReturnRepository(db),
	}
	f.purchaseOrders = NewPurchaseOrderService(f.poRepo, scope)
	f.salesOrders = NewSalesOrderService(f.soRepo, scope)
	f.purchaseReturns = NewPurchaseReturnService(f.prRepo, scope)
	f.salesReturns = NewSalesReturnService(f.srRepo, scope)
	f.purchaseOrders.SetClock(f.clock.Now)
	f.salesOrders.SetClock(f.clock.Now)
	f.purchaseReturns.SetClock(f.clock.Now)
	f.salesReturns.SetClock(f.clock.Now)
	return f
}

func cashierCtx() context.Context {
	return shared.WithActor(context.Background(), shared.Actor{UserID: uuid.New(), Role: shared.RoleCashier})
}

func adminCtx() context.Context {
	return shared.WithActor(context.Background(), shared.Actor{UserID: uuid.New(), Role: shared.RoleAdmin})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// seedProduct stores a product with an opening stock and cost
func (f *fixture) seedProduct(code string, stock, cost, sellingPrice string) *catalog.Product {
	f.t.Helper()
	p, err := catalog.NewProduct(code, "Product "+code, "pcs", dec(cost), dec(sellingPrice), decimal.Zero, f.clock.Now())
	require.NoError(f.t, err)
	p.Stock = dec(stock)
	p.CostPrice = dec(cost)
	require.NoError(f.t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) seedSupplier(receivables, limit string) *partner.Supplier {
	f.t.Helper()
	s, err := partner.NewSupplier("SUP"+uuid.NewString()[:8], "Supplier", dec(limit), f.clock.Now())
	require.NoError(f.t, err)
	s.Receivables = dec(receivables)
	require.NoError(f.t, f.supplies.Create(context.Background(), s))
	return s
}

func (f *fixture) seedCustomer() *partner.Customer {
	f.t.Helper()
	c, err := partner.NewCustomer("CUS"+uuid.NewString()[:8], "Walk-in", f.clock.Now())
	require.NoError(f.t, err)
	require.NoError(f.t, f.customer.Create(context.Background(), c))
	return c
}

func (f *fixture) product(id uuid.UUID) *catalog.Product {
	f.t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) supplier(id uuid.UUID) *partner.Supplier {
	f.t.Helper()
	s, err := f.supplies.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return s
}

// completedPurchase creates and finishes a purchase order of a single line
func (f *fixture) completedPurchase(supplierID, productID uuid.UUID, qty, price string) *PurchaseOrderResponse {
	f.t.Helper()
	ctx := cashierCtx()
	po, err := f.purchaseOrders.Create(ctx, CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Details:    []PurchaseOrderDetailRequest{{ProductID: productID, PurchasePrice: dec(price), Quantity: dec(qty)}},
	})
	require.NoError(f.t, err)
	po, err = f.purchaseOrders.Finish(ctx, po.ID)
	require.NoError(f.t, err)
	return po
}

// sale creates an in-progress sales order of a single product line at the product's price
func (f *fixture) sale(customerID uuid.UUID, product *catalog.Product, qty string) *SalesOrderResponse {
	f.t.Helper()
	so, err := f.salesOrders.Create(cashierCtx(), CreateSalesOrderRequest{
		CustomerID:     customerID,
		PaymentType:    "DOWN_PAYMENT",
		PaymentMethod:  "CASH",
		ProductDetails: []SalesOrderProductRequest{{ProductID: product.ID, SellingPrice: product.SellingPrice, Quantity: dec(qty)}},
	})
	require.NoError(f.t, err)
	return so
}
