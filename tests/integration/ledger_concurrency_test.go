//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	catalogapp "github.com/erp/tradeledger/internal/application/catalog"
	tradeapp "github.com/erp/tradeledger/internal/application/trade"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentSales_NeverOversell(t *testing.T) {
	tdb := NewTestDB(t)
	env := newLedgerEnv(tdb)

	product := env.seedProduct(t, "PRD90000001", "5", "100", "150")
	customer := env.seedCustomer(t)

	const attempts = 12
	var (
		wg           sync.WaitGroup
		succeeded    atomic.Int32
		insufficient atomic.Int32
		unexpected   = make(chan error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.salesOrders.Create(testutil.CashierContext(), saleOf(customer.ID, product, "1"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, shared.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				unexpected <- err
			}
		}()
	}
	wg.Wait()
	close(unexpected)
	for err := range unexpected {
		t.Errorf("unexpected error: %v", err)
	}

	assert.Equal(t, int32(5), succeeded.Load())
	assert.Equal(t, int32(attempts-5), insufficient.Load())
	testutil.AssertDecimal(t, "0", env.product(t, product.ID).Stock)

	orders, total, err := env.salesOrders.List(testutil.CashierContext(), tradeapp.SalesOrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	codes := make(map[string]bool, len(orders))
	for _, o := range orders {
		codes[o.Code] = true
	}
	assert.Len(t, codes, 5)
}

func TestConcurrentProductCreation_UniqueCodes(t *testing.T) {
	tdb := NewTestDB(t)
	env := newLedgerEnv(tdb)

	const workers = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]bool, workers)
		errs  = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := env.products.Create(testutil.CashierContext(), catalogapp.CreateProductRequest{
				Name:         fmt.Sprintf("Widget %02d", i),
				Uom:          "pcs",
				SellingPrice: testutil.Dec("10"),
			})
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			codes[p.Code] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("create failed: %v", err)
	}

	require.Len(t, codes, workers)
	for n := 1; n <= workers; n++ {
		assert.True(t, codes[shared.FormatCode(shared.PrefixProduct, int64(n), shared.DefaultCodeWidth)], "missing code %d", n)
	}
}

func TestConcurrentPayments_NeverOverpay(t *testing.T) {
	tdb := NewTestDB(t)
	env := newLedgerEnv(tdb)

	product := env.seedProduct(t, "PRD90000002", "10", "100", "150")
	customer := env.seedCustomer(t)
	order, err := env.salesOrders.Create(testutil.CashierContext(), saleOf(customer.ID, product, "1"))
	require.NoError(t, err)
	testutil.AssertDecimal(t, "150", order.GrandTotal)

	const attempts = 6
	var (
		wg         sync.WaitGroup
		paid       atomic.Int32
		overpaid   atomic.Int32
		unexpected = make(chan error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.salesOrders.Pay(testutil.CashierContext(), order.ID, tradeapp.PayRequest{
				Amount: testutil.Dec("50"),
				Method: "CASH",
			})
			switch {
			case err == nil:
				paid.Add(1)
			case errors.Is(err, shared.ErrOverpayment):
				overpaid.Add(1)
			default:
				unexpected <- err
			}
		}()
	}
	wg.Wait()
	close(unexpected)
	for err := range unexpected {
		t.Errorf("unexpected error: %v", err)
	}

	assert.Equal(t, int32(3), paid.Load())
	assert.Equal(t, int32(3), overpaid.Load())

	got, err := env.salesOrders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "150", got.PaidAmount)
	assert.Equal(t, "PAID", got.PaymentStatus)
	assert.Len(t, got.Payments, 3)
}

func TestCancelPurchaseOrder_BlockedByLaterSale(t *testing.T) {
	tdb := NewTestDB(t)
	env := newLedgerEnv(tdb)

	product := env.seedProduct(t, "PRD90000003", "0", "0", "150")
	supplier := env.seedSupplier(t, "0")
	customer := env.seedCustomer(t)
	ctx := testutil.CashierContext()

	po, err := env.purchaseOrders.Create(ctx, tradeapp.CreatePurchaseOrderRequest{
		SupplierID: supplier.ID,
		Details: []tradeapp.PurchaseOrderDetailRequest{
			{ProductID: product.ID, PurchasePrice: testutil.Dec("100"), Quantity: testutil.Dec("4")},
		},
	})
	require.NoError(t, err)
	_, err = env.purchaseOrders.Finish(ctx, po.ID)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "4", env.product(t, product.ID).Stock)

	sale, err := env.salesOrders.Create(ctx, saleOf(customer.ID, product, "1"))
	require.NoError(t, err)

	_, err = env.purchaseOrders.Cancel(testutil.AdminContext(), po.ID)
	require.Error(t, err)
	assert.Equal(t, shared.KindCausalityConflict, shared.KindOf(err))
	testutil.AssertDecimal(t, "3", env.product(t, product.ID).Stock)

	// once the later sale is cancelled the purchase can be reversed
	_, err = env.salesOrders.Cancel(testutil.AdminContext(), sale.ID)
	require.NoError(t, err)
	cancelled, err := env.purchaseOrders.Cancel(testutil.AdminContext(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	testutil.AssertDecimal(t, "0", env.product(t, product.ID).Stock)
}

func TestConcurrentSalesReturns_NeverOverReturn(t *testing.T) {
	tdb := NewTestDB(t)
	env := newLedgerEnv(tdb)

	product := env.seedProduct(t, "PRD90000004", "10", "100", "150")
	customer := env.seedCustomer(t)
	order, err := env.salesOrders.Create(testutil.CashierContext(), saleOf(customer.ID, product, "6"))
	require.NoError(t, err)
	testutil.AssertDecimal(t, "4", env.product(t, product.ID).Stock)
	lineID := order.ProductDetails[0].ID

	const attempts = 10
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		accepted   []*tradeapp.SalesReturnResponse
		overReturn atomic.Int32
		unexpected = make(chan error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ret, err := env.salesReturns.Create(testutil.CashierContext(), tradeapp.CreateSalesReturnRequest{
				SalesOrderID: order.ID,
				ProductDetails: []tradeapp.SalesReturnLineRequest{
					{DetailID: lineID, ReturnQuantity: testutil.Dec("1")},
				},
			})
			switch {
			case err == nil:
				mu.Lock()
				accepted = append(accepted, ret)
				mu.Unlock()
			case errors.Is(err, shared.ErrOverReturn):
				overReturn.Add(1)
			default:
				unexpected <- err
			}
		}()
	}
	wg.Wait()
	close(unexpected)
	for err := range unexpected {
		t.Errorf("unexpected error: %v", err)
	}

	require.Len(t, accepted, 6)
	assert.Equal(t, int32(attempts-6), overReturn.Load())
	testutil.AssertDecimal(t, "10", env.product(t, product.ID).Stock)

	got, err := env.salesOrders.GetByID(testutil.CashierContext(), order.ID)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "6", got.ProductDetails[0].ReturnedQuantity)

	// only the latest return can be reversed without a later document
	latest := accepted[0]
	for _, r := range accepted[1:] {
		if r.Code > latest.Code {
			latest = r
		}
	}

	const cancellers = 4
	var (
		cancelled atomic.Int32
		rejected  atomic.Int32
		cancelErr = make(chan error, cancellers)
	)
	for i := 0; i < cancellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.salesReturns.Cancel(testutil.AdminContext(), latest.ID)
			switch {
			case err == nil:
				cancelled.Add(1)
			case errors.Is(err, shared.ErrInvalidTransition):
				rejected.Add(1)
			default:
				cancelErr <- err
			}
		}()
	}
	wg.Wait()
	close(cancelErr)
	for err := range cancelErr {
		t.Errorf("unexpected cancel error: %v", err)
	}

	assert.Equal(t, int32(1), cancelled.Load())
	assert.Equal(t, int32(cancellers-1), rejected.Load())
	testutil.AssertDecimal(t, "9", env.product(t, product.ID).Stock)

	got, err = env.salesOrders.GetByID(testutil.CashierContext(), order.ID)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "5", got.ProductDetails[0].ReturnedQuantity)
}
