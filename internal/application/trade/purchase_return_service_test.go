package trade

import (
	"context"
	"testing"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) purchaseReturned(po *PurchaseOrderResponse) string {
	f.t.Helper()
	order, err := f.poRepo.FindByID(context.Background(), po.ID)
	require.NoError(f.t, err)
	d := order.GetDetail(po.Details[0].ID)
	require.NotNil(f.t, d)
	return d.ReturnedQuantity.String()
}

func (f *fixture) returnGoods(po *PurchaseOrderResponse, returnType trade.ReturnType, qty string) (*PurchaseReturnResponse, error) {
	return f.purchaseReturns.Create(cashierCtx(), CreatePurchaseReturnRequest{
		PurchaseOrderID: po.ID,
		ReturnType:      string(returnType),
		Details:         []PurchaseReturnDetailRequest{{PurchaseOrderDetailID: po.Details[0].ID, ReturnQuantity: dec(qty)}},
	})
}

func TestPurchaseReturnService_Refund(t *testing.T) {
	t.Run("refund backs goods out at purchase price and credits the supplier", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "10000")
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")

		pr, err := f.returnGoods(po, trade.ReturnTypeRefund, "4")
		require.NoError(t, err)
		assert.Equal(t, "PR00000001", pr.Code)
		assert.Equal(t, string(trade.StatusCompleted), pr.Status)
		assert.NotNil(t, pr.CompletedAt)
		assertDecimal(t, "4000", pr.GrandTotal)
		require.Len(t, pr.Details, 1)
		assertDecimal(t, "1000", pr.Details[0].ReturnPrice)

		p := f.product(x.ID)
		assertDecimal(t, "6", p.Stock)
		assertDecimal(t, "1000", p.CostPrice)
		assertDecimal(t, "4000", f.supplier(sup.ID).Receivables)
		assertDecimal(t, "4", dec(f.purchaseReturned(po)))

		cancelled, err := f.purchaseReturns.Cancel(adminCtx(), pr.ID)
		require.NoError(t, err)
		assert.Equal(t, string(trade.StatusCancelled), cancelled.Status)

		p = f.product(x.ID)
		assertDecimal(t, "10", p.Stock)
		assertDecimal(t, "1000", p.CostPrice)
		assertDecimal(t, "0", f.supplier(sup.ID).Receivables)
		assertDecimal(t, "0", dec(f.purchaseReturned(po)))

		_, err = f.purchaseReturns.Cancel(adminCtx(), pr.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("refund above the receivables limit persists nothing", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "1000")
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")

		_, err := f.returnGoods(po, trade.ReturnTypeRefund, "4")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrReceivablesLimit)
		assert.Equal(t, shared.KindInvariantViolation, shared.KindOf(err))

		assertDecimal(t, "10", f.product(x.ID).Stock)
		assertDecimal(t, "0", f.supplier(sup.ID).Receivables)
		assertDecimal(t, "0", dec(f.purchaseReturned(po)))
		_, total, err := f.prRepo.FindAll(context.Background(), trade.PurchaseReturnFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("cannot return more than was received", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "100000")
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")

		_, err := f.returnGoods(po, trade.ReturnTypeRefund, "6")
		require.NoError(t, err)
		_, err = f.returnGoods(po, trade.ReturnTypeRefund, "5")
		assert.ErrorIs(t, err, shared.ErrOverReturn)
		assertDecimal(t, "4", f.product(x.ID).Stock)
	})

	t.Run("in-progress orders take no returns", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "100000")
		x := f.seedProduct("X", "0", "0", "1500")
		po, err := f.purchaseOrders.Create(cashierCtx(), CreatePurchaseOrderRequest{
			SupplierID: sup.ID,
			Details:    []PurchaseOrderDetailRequest{{ProductID: x.ID, PurchasePrice: dec("1000"), Quantity: dec("2")}},
		})
		require.NoError(t, err)

		_, err = f.returnGoods(po, trade.ReturnTypeRefund, "1")
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})
}

func TestPurchaseReturnService_Replacement(t *testing.T) {
	t.Run("goods go out on create and come back on finish", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")

		pr, err := f.returnGoods(po, trade.ReturnTypeReplacementGoods, "3")
		require.NoError(t, err)
		assert.Equal(t, string(trade.StatusInProgress), pr.Status)
		assertDecimal(t, "7", f.product(x.ID).Stock)
		assertDecimal(t, "0", f.supplier(sup.ID).Receivables)

		done, err := f.purchaseReturns.Finish(cashierCtx(), pr.ID)
		require.NoError(t, err)
		assert.Equal(t, string(trade.StatusCompleted), done.Status)
		p := f.product(x.ID)
		assertDecimal(t, "10", p.Stock)
		assertDecimal(t, "1000", p.CostPrice)

		_, err = f.purchaseReturns.Finish(cashierCtx(), pr.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)

		_, err = f.purchaseReturns.Cancel(adminCtx(), pr.ID)
		require.NoError(t, err)
		assertDecimal(t, "10", f.product(x.ID).Stock)
		assertDecimal(t, "0", dec(f.purchaseReturned(po)))
	})

	t.Run("cancelling an open replacement restocks", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")

		pr, err := f.returnGoods(po, trade.ReturnTypeReplacementGoods, "3")
		require.NoError(t, err)

		_, err = f.purchaseReturns.Cancel(cashierCtx(), pr.ID)
		assert.ErrorIs(t, err, shared.ErrAdminOnly)

		_, err = f.purchaseReturns.Cancel(adminCtx(), pr.ID)
		require.NoError(t, err)
		assertDecimal(t, "10", f.product(x.ID).Stock)
		assertDecimal(t, "0", dec(f.purchaseReturned(po)))
	})

	t.Run("round trip keeps the weighted cost", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "0")
		x := f.seedProduct("X", "10", "100", "500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "300")
		assertDecimal(t, "200", f.product(x.ID).CostPrice)

		pr, err := f.returnGoods(po, trade.ReturnTypeReplacementGoods, "5")
		require.NoError(t, err)
		p := f.product(x.ID)
		assertDecimal(t, "15", p.Stock)
		assertDecimal(t, "166.6667", p.CostPrice)

		_, err = f.purchaseReturns.Finish(cashierCtx(), pr.ID)
		require.NoError(t, err)
		p = f.product(x.ID)
		assertDecimal(t, "20", p.Stock)
		assertDecimal(t, "200", p.CostPrice)

		open, err := f.returnGoods(po, trade.ReturnTypeReplacementGoods, "5")
		require.NoError(t, err)
		_, err = f.purchaseReturns.Cancel(adminCtx(), open.ID)
		require.NoError(t, err)
		p = f.product(x.ID)
		assertDecimal(t, "20", p.Stock)
		assertDecimal(t, "200", p.CostPrice)
	})

	t.Run("refunds are not finished explicitly", func(t *testing.T) {
		f := newFixture(t)
		sup := f.seedSupplier("0", "100000")
		x := f.seedProduct("X", "0", "0", "1500")
		po := f.completedPurchase(sup.ID, x.ID, "10", "1000")
		pr, err := f.returnGoods(po, trade.ReturnTypeRefund, "1")
		require.NoError(t, err)

		_, err = f.purchaseReturns.Finish(cashierCtx(), pr.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})
}

func TestPurchaseReturnService_CancelCausality(t *testing.T) {
	f := newFixture(t)
	sup := f.seedSupplier("0", "100000")
	cus := f.seedCustomer()
	x := f.seedProduct("X", "0", "0", "1500")
	po := f.completedPurchase(sup.ID, x.ID, "10", "1000")
	pr, err := f.returnGoods(po, trade.ReturnTypeRefund, "2")
	require.NoError(t, err)
	f.sale(cus.ID, f.product(x.ID), "1")

	_, err = f.purchaseReturns.Cancel(adminCtx(), pr.ID)
	assert.Equal(t, shared.KindCausalityConflict, shared.KindOf(err))
	assertDecimal(t, "7", f.product(x.ID).Stock)
	assertDecimal(t, "2000", f.supplier(sup.ID).Receivables)
}

func TestPurchaseReturnService_List(t *testing.T) {
	f := newFixture(t)
	sup := f.seedSupplier("0", "100000")
	x := f.seedProduct("X", "0", "0", "1500")
	po := f.completedPurchase(sup.ID, x.ID, "10", "1000")
	_, err := f.returnGoods(po, trade.ReturnTypeRefund, "1")
	require.NoError(t, err)
	_, err = f.returnGoods(po, trade.ReturnTypeReplacementGoods, "1")
	require.NoError(t, err)

	items, total, err := f.purchaseReturns.List(context.Background(), PurchaseReturnListFilter{PurchaseOrderID: po.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	_, total, err = f.purchaseReturns.List(context.Background(), PurchaseReturnListFilter{ReturnType: string(trade.ReturnTypeRefund)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, _, err = f.purchaseReturns.List(context.Background(), PurchaseReturnListFilter{ReturnType: "SWAP"})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}
