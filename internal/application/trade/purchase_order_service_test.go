package trade

import (
	"context"
	"testing"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseOrderService_Create(t *testing.T) {
	t.Run("totals two lines and issues sequential codes", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "0", "0", "1500")
		y := f.seedProduct("Y", "0", "0", "2500")

		po, err := f.purchaseOrders.Create(cashierCtx(), CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details: []PurchaseOrderDetailRequest{
				{ProductID: x.ID, PurchasePrice: dec("1000"), Quantity: dec("10")},
				{ProductID: y.ID, PurchasePrice: dec("2000"), Quantity: dec("5")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "PO00000001", po.Code)
		assertDecimal(t, "20000", po.SubTotal)
		assertDecimal(t, "20000", po.GrandTotal)
		assert.Equal(t, string(trade.PaymentStatusUnpaid), po.PaymentStatus)
		assert.Equal(t, string(trade.StatusInProgress), po.Status)
		assert.Len(t, po.Details, 2)

		second, err := f.purchaseOrders.Create(cashierCtx(), CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details:    []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("1"), Quantity: dec("1")}},
		})
		require.NoError(t, err)
		assert.Equal(t, "PO00000002", second.Code)
	})

	t.Run("initial payment equal to grand total is paid", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "0", "0", "1500")

		po, err := f.purchaseOrders.Create(cashierCtx(), CreatePurchaseOrderRequest{
			SupplierID:    sup.ID,
			Details:       []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("250"), Quantity: dec("4")}},
			PaidAmount:    dec("1000"),
			PaymentMethod: "TRANSFER",
		})
		require.NoError(t, err)
		assert.Equal(t, string(trade.PaymentStatusPaid), po.PaymentStatus)
		require.Len(t, po.Payments, 1)
		assertDecimal(t, "1000", po.Payments[0].Amount)
	})

	t.Run("duplicate products are rejected without writing", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "0", "0", "1500")

		_, err := f.purchaseOrders.Create(cashierCtx(), CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details: []PurchaseOrderDetailRequest{
				{ProductID: x.ID, PurchasePrice: dec("1"), Quantity: dec("1")},
				{ProductID: x.ID, PurchasePrice: dec("2"), Quantity: dec("1")},
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrDuplicateProduct)

		_, total, err := f.poRepo.FindAll(context.Background(), trade.PurchaseOrderFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")

		_, err := f.purchaseOrders.Create(cashierCtx(), CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details:    []PurchaseOrderDetailRequest{{ProductID: uuid.New(), PurchasePrice: dec("1"), Quantity: dec("1")}},
		})
		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	})

	t.Run("requires an actor", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.purchaseOrders.Create(context.Background(), CreatePurchaseOrderRequest{})
		assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	})
}

func TestPurchaseOrderService_Update(t *testing.T) {
	t.Run("receivables move by exactly the applied delta", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("300", "1000")
		x := f.seedProduct("X", "0", "0", "1500")
		ctx := cashierCtx()

		po, err := f.purchaseOrders.Create(ctx, CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details:    []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("100"), Quantity: dec("10")}},
		})
		require.NoError(t, err)
		detailID := po.Details[0].ID
		lines := []PurchaseOrderDetailRequest{{ID: &detailID, ProductID: x.ID, PurchasePrice: dec("100"), Quantity: dec("10")}}

		po, err = f.purchaseOrders.Update(ctx, po.ID, UpdatePurchaseOrderRequest{Details: lines, AppliedReceivables: dec("200")})
		require.NoError(t, err)
		assertDecimal(t, "800", po.GrandTotal)
		assertDecimal(t, "100", f.supplier(sup.ID).Receivables)

		po, err = f.purchaseOrders.Update(ctx, po.ID, UpdatePurchaseOrderRequest{Details: lines, AppliedReceivables: dec("50")})
		require.NoError(t, err)
		assertDecimal(t, "250", f.supplier(sup.ID).Receivables)
		assert.Equal(t, detailID, po.Details[0].ID)

		_, err = f.purchaseOrders.Update(ctx, po.ID, UpdatePurchaseOrderRequest{Details: lines, AppliedReceivables: dec("500")})
		require.Error(t, err)
		assert.Equal(t, shared.KindInvariantViolation, shared.KindOf(err))
		assert.ErrorIs(t, err, shared.ErrOverApplied)
		assertDecimal(t, "250", f.supplier(sup.ID).Receivables)

		stored, err := f.poRepo.FindByID(context.Background(), po.ID)
		require.NoError(t, err)
		assertDecimal(t, "50", stored.AppliedReceivables)
	})

	t.Run("applying more than the supplier holds fails", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("300", "1000")
		x := f.seedProduct("X", "0", "0", "1500")
		ctx := cashierCtx()

		po, err := f.purchaseOrders.Create(ctx, CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details:    []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("1000"), Quantity: dec("10")}},
		})
		require.NoError(t, err)
		_, err = f.purchaseOrders.Update(ctx, po.ID, UpdatePurchaseOrderRequest{
			Details:            []PurchaseOrderDetailRequest{{ID: &po.Details[0].ID, ProductID: x.ID, PurchasePrice: dec("1000"), Quantity: dec("10")}},
			AppliedReceivables: dec("500"),
		})
		assert.Equal(t, shared.KindInvariantViolation, shared.KindOf(err))
		assertDecimal(t, "300", f.supplier(sup.ID).Receivables)
	})

	t.Run("reconciles lines and clears overpaid history", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "0", "0", "1500")
		y := f.seedProduct("Y", "0", "0", "1500")
		z := f.seedProduct("Z", "0", "0", "1500")
		ctx := cashierCtx()

		po, err := f.purchaseOrders.Create(ctx, CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details: []PurchaseOrderDetailRequest{
				{ProductID: x.ID, PurchasePrice: dec("1000"), Quantity: dec("5")},
				{ProductID: y.ID, PurchasePrice: dec("1000"), Quantity: dec("5")},
			},
			PaidAmount:    dec("8000"),
			PaymentMethod: "CASH",
		})
		require.NoError(t, err)
		var keep uuid.UUID
		for _, d := range po.Details {
			if d.ProductID == x.ID {
				keep = d.ID
			}
		}

		po, err = f.purchaseOrders.Update(ctx, po.ID, UpdatePurchaseOrderRequest{
			Details: []PurchaseOrderDetailRequest{
				{ID: &keep, ProductID: x.ID, PurchasePrice: dec("1000"), Quantity: dec("3")},
				{ProductID: z.ID, PurchasePrice: dec("500"), Quantity: dec("2")},
			},
		})
		require.NoError(t, err)
		assertDecimal(t, "4000", po.GrandTotal)
		assertDecimal(t, "0", po.PaidAmount)
		assert.Empty(t, po.Payments)
		assert.Equal(t, string(trade.PaymentStatusUnpaid), po.PaymentStatus)

		stored, err := f.poRepo.FindByID(context.Background(), po.ID)
		require.NoError(t, err)
		require.Len(t, stored.Details, 2)
		assert.Empty(t, stored.Payments)
		products := map[uuid.UUID]bool{}
		for _, d := range stored.Details {
			products[d.ProductID] = true
		}
		assert.True(t, products[x.ID])
		assert.True(t, products[z.ID])
		assert.NotNil(t, stored.GetDetail(keep))
	})

	t.Run("completed orders cannot be edited", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "1", "10")

		_, err := f.purchaseOrders.Update(cashierCtx(), po.ID, UpdatePurchaseOrderRequest{
			Details: []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("1"), Quantity: dec("1")}},
		})
		assert.Equal(t, shared.KindStateConflict, shared.KindOf(err))
	})
}

func TestPurchaseOrderService_Delete(t *testing.T) {
	f := newFixture(t)
	sup := f.seedSupplier("300", "1000")
	x := f.seedProduct("X", "0", "0", "1500")
	ctx := cashierCtx()

	po, err := f.purchaseOrders.Create(ctx, CreatePurchaseOrderRequest{
		SupplierID:    sup.ID,
		Details:       []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("100"), Quantity: dec("10")}},
		PaidAmount:    dec("100"),
		PaymentMethod: "CASH",
	})
	require.NoError(t, err)
	_, err = f.purchaseOrders.Update(ctx, po.ID, UpdatePurchaseOrderRequest{
		Details:            []PurchaseOrderDetailRequest{{ID: &po.Details[0].ID, ProductID: x.ID, PurchasePrice: dec("100"), Quantity: dec("10")}},
		AppliedReceivables: dec("200"),
	})
	require.NoError(t, err)
	assertDecimal(t, "100", f.supplier(sup.ID).Receivables)

	require.NoError(t, f.purchaseOrders.Delete(ctx, po.ID))
	assertDecimal(t, "300", f.supplier(sup.ID).Receivables)

	_, err = f.poRepo.FindByID(context.Background(), po.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(f.purchaseOrders.Delete(ctx, po.ID)))
}

func TestPurchaseOrderService_FinishAndCancel(t *testing.T) {
	t.Run("finish receives stock at weighted average cost", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "10", "500", "1500")

		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")
		assert.Equal(t, string(trade.StatusCompleted), po.Status)
		assert.NotNil(t, po.CompletedAt)

		p := f.product(x.ID)
		assertDecimal(t, "20", p.Stock)
		assertDecimal(t, "750", p.CostPrice)

		_, err := f.purchaseOrders.Finish(cashierCtx(), po.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("cancel of a completed order restores stock and cost", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "10", "500", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")

		_, err := f.purchaseOrders.Cancel(cashierCtx(), po.ID)
		assert.ErrorIs(t, err, shared.ErrAdminOnly)

		cancelled, err := f.purchaseOrders.Cancel(adminCtx(), po.ID)
		require.NoError(t, err)
		assert.Equal(t, string(trade.StatusCancelled), cancelled.Status)

		p := f.product(x.ID)
		assertDecimal(t, "10", p.Stock)
		assertDecimal(t, "500", p.CostPrice)
	})

	t.Run("cancel is blocked by a later sale of the same product", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		cus := f.seedCustomer()
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")
		f.sale(cus.ID, f.product(x.ID), "1")

		_, err := f.purchaseOrders.Cancel(adminCtx(), po.ID)
		require.Error(t, err)
		assert.Equal(t, shared.KindCausalityConflict, shared.KindOf(err))
		assertDecimal(t, "9", f.product(x.ID).Stock)
	})

	t.Run("cancel with active purchase returns is a state conflict", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "100000")
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")
		_, err := f.purchaseReturns.Create(cashierCtx(), CreatePurchaseReturnRequest{
			PurchaseOrderID: po.ID,
			ReturnType:      string(trade.ReturnTypeRefund),
			Details:         []PurchaseReturnDetailRequest{{PurchaseOrderDetailID: po.Details[0].ID, ReturnQuantity: dec("1")}},
		})
		require.NoError(t, err)

		_, err = f.purchaseOrders.Cancel(adminCtx(), po.ID)
		assert.Equal(t, shared.KindStateConflict, shared.KindOf(err))
	})

	t.Run("cancel of an in-progress order releases applied receivables", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("300", "1000")
		x := f.seedProduct("X", "0", "0", "1500")
		ctx := cashierCtx()
		po, err := f.purchaseOrders.Create(ctx, CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details:    []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("100"), Quantity: dec("10")}},
		})
		require.NoError(t, err)
		_, err = f.purchaseOrders.Update(ctx, po.ID, UpdatePurchaseOrderRequest{
			Details:            []PurchaseOrderDetailRequest{{ID: &po.Details[0].ID, ProductID: x.ID, PurchasePrice: dec("100"), Quantity: dec("10")}},
			AppliedReceivables: dec("300"),
		})
		require.NoError(t, err)
		assertDecimal(t, "0", f.supplier(sup.ID).Receivables)

		_, err = f.purchaseOrders.Cancel(adminCtx(), po.ID)
		require.NoError(t, err)
		assertDecimal(t, "300", f.supplier(sup.ID).Receivables)
		assertDecimal(t, "0", f.product(x.ID).Stock)
	})
}

func TestPurchaseOrderService_Pay(t *testing.T) {
	f := newFixture(t)
	sup := f.seedSupplier("0", "0")
	x := f.seedProduct("X", "0", "0", "1500")
	ctx := cashierCtx()
	po, err := f.purchaseOrders.Create(ctx, CreatePurchaseOrderRequest{
		SupplierID: sup.ID,
		Details:    []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("100"), Quantity: dec("10")}},
	})
	require.NoError(t, err)

	po, err = f.purchaseOrders.Pay(ctx, po.ID, PayRequest{Amount: dec("400"), Method: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, string(trade.PaymentStatusUnpaid), po.PaymentStatus)

	_, err = f.purchaseOrders.Pay(ctx, po.ID, PayRequest{Amount: dec("601"), Method: "CASH"})
	assert.ErrorIs(t, err, shared.ErrOverpayment)

	po, err = f.purchaseOrders.Pay(ctx, po.ID, PayRequest{Amount: dec("600"), Method: "TRANSFER"})
	require.NoError(t, err)
	assert.Equal(t, string(trade.PaymentStatusPaid), po.PaymentStatus)
	assert.Len(t, po.Payments, 2)

	stored, err := f.purchaseOrders.GetByID(context.Background(), po.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000", stored.PaidAmount)
	assert.Len(t, stored.Payments, 2)
}

func TestPurchaseOrderService_List(t *testing.T) {
	f := newFixture(t)
	sup := f.seedSupplier("0", "0")
	other := f.seedSupplier("0", "0")
	x := f.seedProduct("X", "0", "0", "1500")
	f.completedPurchase(sup.ID, x.ID, "1", "10")
	f.completedPurchase(sup.ID, x.ID, "1", "10")
	f.completedPurchase(other.ID, x.ID, "1", "10")

	items, total, err := f.purchaseOrders.List(context.Background(), PurchaseOrderListFilter{SupplierID: sup.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
	assert.Empty(t, items[0].Details)

	_, total, err = f.purchaseOrders.List(context.Background(), PurchaseOrderListFilter{Status: string(trade.StatusInProgress)})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, _, err = f.purchaseOrders.List(context.Background(), PurchaseOrderListFilter{SupplierID: "not-a-uuid"})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}
