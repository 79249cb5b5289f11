package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newProduct(t *testing.T, stock, cost string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("PRD00000001", "Bolt", "pcs", dec("100"), dec("150"), dec("5"), now)
	require.NoError(t, err)
	p.Stock = dec(stock)
	p.CostPrice = dec(cost)
	return p
}

func TestStockLedger_Receive(t *testing.T) {
	ctx := context.Background()
	product := newProduct(t, "10", "100")
	repo := new(MockProductRepository)
	repo.On("FindByIDForUpdate", ctx, product.ID).Return(product, nil)
	repo.On("SaveStock", ctx, product).Return(nil)

	got, err := NewStockLedger(repo).Receive(ctx, product.ID, dec("10"), dec("200"))
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(dec("20")))
	assert.True(t, got.CostPrice.Equal(dec("150")))
	repo.AssertExpectations(t)
}

func TestStockLedger_ReceiveThenReverseRestoresCost(t *testing.T) {
	ctx := context.Background()
	product := newProduct(t, "7", "123.4567")
	repo := new(MockProductRepository)
	repo.On("FindByIDForUpdate", ctx, product.ID).Return(product, nil)
	repo.On("SaveStock", ctx, product).Return(nil)
	sl := NewStockLedger(repo)

	_, err := sl.Receive(ctx, product.ID, dec("3"), dec("99.5"))
	require.NoError(t, err)
	_, err = sl.ReverseReceipt(ctx, product.ID, dec("3"), dec("99.5"))
	require.NoError(t, err)

	assert.True(t, product.Stock.Equal(dec("7")))
	assert.True(t, product.CostPrice.Sub(dec("123.4567")).Abs().LessThanOrEqual(dec("0.0001")),
		"cost drifted to %s", product.CostPrice)
}

func TestStockLedger_IssueInsufficientDoesNotSave(t *testing.T) {
	ctx := context.Background()
	product := newProduct(t, "2", "100")
	repo := new(MockProductRepository)
	repo.On("FindByIDForUpdate", ctx, product.ID).Return(product, nil)

	_, err := NewStockLedger(repo).Issue(ctx, product.ID, dec("3"))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, shared.KindInvariantViolation, shared.KindOf(err))
	repo.AssertNotCalled(t, "SaveStock", mock.Anything, mock.Anything)
}

func TestStockLedger_RestockKeepsCost(t *testing.T) {
	ctx := context.Background()
	product := newProduct(t, "4", "80")
	repo := new(MockProductRepository)
	repo.On("FindByIDForUpdate", ctx, product.ID).Return(product, nil)
	repo.On("SaveStock", ctx, product).Return(nil)

	_, err := NewStockLedger(repo).Restock(ctx, product.ID, dec("6"))
	require.NoError(t, err)
	assert.True(t, product.Stock.Equal(dec("10")))
	assert.True(t, product.CostPrice.Equal(dec("80")))
}

func TestStockLedger_NotFound(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	repo := new(MockProductRepository)
	repo.On("FindByIDForUpdate", ctx, id).Return(nil, shared.ErrNotFound)

	_, err := NewStockLedger(repo).Restock(ctx, id, dec("1"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLockOrder(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("0c000000-0000-0000-0000-000000000000")

	assert.Equal(t, []uuid.UUID{a, b, c}, LockOrder([]uuid.UUID{c, b, a, b}))
	assert.Empty(t, LockOrder(nil))
}

func TestStockLedger_LockSortsRows(t *testing.T) {
	ctx := context.Background()
	first := newProduct(t, "1", "10")
	second := newProduct(t, "2", "10")
	if LockOrder([]uuid.UUID{first.ID, second.ID})[0] != first.ID {
		first, second = second, first
	}

	var order []uuid.UUID
	record := func(args mock.Arguments) { order = append(order, args.Get(1).(uuid.UUID)) }
	repo := new(MockProductRepository)
	repo.On("FindByIDForUpdate", ctx, first.ID).Run(record).Return(first, nil)
	repo.On("FindByIDForUpdate", ctx, second.ID).Run(record).Return(second, nil)

	locked, err := NewStockLedger(repo).Lock(ctx, []uuid.UUID{second.ID, first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, order)
	assert.Len(t, locked, 2)
	assert.Same(t, first, locked[first.ID])
}

func TestStockLedger_LockStopsAtMissingProduct(t *testing.T) {
	ctx := context.Background()
	missing := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	product := newProduct(t, "1", "10")
	repo := new(MockProductRepository)
	repo.On("FindByIDForUpdate", ctx, missing).Return(nil, shared.ErrNotFound)

	_, err := NewStockLedger(repo).Lock(ctx, []uuid.UUID{product.ID, missing})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	repo.AssertNotCalled(t, "FindByIDForUpdate", ctx, product.ID)
}

func newSupplier(t *testing.T, receivables, limit string) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier("SUP00000001", "Acme", dec(limit), now)
	require.NoError(t, err)
	s.Receivables = dec(receivables)
	return s
}

func TestReceivablesLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("apply within receivables", func(t *testing.T) {
		s := newSupplier(t, "300", "1000")
		repo := new(MockSupplierRepository)
		repo.On("FindByIDForUpdate", ctx, s.ID).Return(s, nil)
		repo.On("SaveReceivables", ctx, s).Return(nil)

		_, err := NewReceivablesLedger(repo).Apply(ctx, s.ID, dec("200"))
		require.NoError(t, err)
		assert.True(t, s.Receivables.Equal(dec("100")))
	})

	t.Run("apply above receivables is rejected", func(t *testing.T) {
		s := newSupplier(t, "300", "1000")
		repo := new(MockSupplierRepository)
		repo.On("FindByIDForUpdate", ctx, s.ID).Return(s, nil)

		_, err := NewReceivablesLedger(repo).Apply(ctx, s.ID, dec("500"))
		assert.ErrorIs(t, err, shared.ErrOverApplied)
		assert.Equal(t, shared.KindInvariantViolation, shared.KindOf(err))
		assert.True(t, s.Receivables.Equal(dec("300")))
		repo.AssertNotCalled(t, "SaveReceivables", mock.Anything, mock.Anything)
	})

	t.Run("release is bounded by the limit", func(t *testing.T) {
		s := newSupplier(t, "900", "1000")
		repo := new(MockSupplierRepository)
		repo.On("FindByIDForUpdate", ctx, s.ID).Return(s, nil)

		_, err := NewReceivablesLedger(repo).Release(ctx, s.ID, dec("200"))
		assert.ErrorIs(t, err, shared.ErrReceivablesLimit)
	})

	t.Run("adjust by a negative delta releases", func(t *testing.T) {
		s := newSupplier(t, "100", "1000")
		repo := new(MockSupplierRepository)
		repo.On("FindByIDForUpdate", ctx, s.ID).Return(s, nil)
		repo.On("SaveReceivables", ctx, s).Return(nil)

		require.NoError(t, NewReceivablesLedger(repo).Adjust(ctx, s.ID, dec("-50")))
		assert.True(t, s.Receivables.Equal(dec("150")))
	})

	t.Run("zero adjust does not lock the supplier", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		require.NoError(t, NewReceivablesLedger(repo).Adjust(ctx, uuid.New(), decimal.Zero))
		repo.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})
}

func TestCausalityGuard_Check(t *testing.T) {
	ctx := context.Background()
	ids := []uuid.UUID{uuid.New()}

	t.Run("no later dependents", func(t *testing.T) {
		scanner := new(MockDependencyScanner)
		scanner.On("HasLaterDependent", ctx, mock.Anything, ids, now, trade.StatusCancelled).Return(false, nil)

		require.NoError(t, NewCausalityGuard(scanner).Check(ctx, "sales return SR00000001", ids, now))
		scanner.AssertNumberOfCalls(t, "HasLaterDependent", len(trade.AllDependencyEntities))
	})

	t.Run("later sales order conflicts", func(t *testing.T) {
		scanner := new(MockDependencyScanner)
		scanner.On("HasLaterDependent", ctx, trade.DependencyPurchaseOrder, ids, now, trade.StatusCancelled).Return(false, nil)
		scanner.On("HasLaterDependent", ctx, trade.DependencySalesOrder, ids, now, trade.StatusCancelled).Return(true, nil)

		err := NewCausalityGuard(scanner).Check(ctx, "sales return SR00000001", ids, now)
		assert.ErrorIs(t, err, shared.ErrCausalityConflict)
		assert.Equal(t, shared.KindCausalityConflict, shared.KindOf(err))
		assert.Contains(t, err.Error(), "sales order")
	})

	t.Run("scanner error is returned", func(t *testing.T) {
		scanner := new(MockDependencyScanner)
		boom := errors.New("connection reset")
		scanner.On("HasLaterDependent", ctx, mock.Anything, ids, now, trade.StatusCancelled).Return(false, boom)

		assert.ErrorIs(t, NewCausalityGuard(scanner).Check(ctx, "x", ids, now), boom)
	})

	t.Run("no products skips the scan", func(t *testing.T) {
		scanner := new(MockDependencyScanner)
		require.NoError(t, NewCausalityGuard(scanner).Check(ctx, "x", nil, now))
		scanner.AssertNotCalled(t, "HasLaterDependent")
	})
}
