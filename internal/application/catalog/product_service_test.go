package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/tradeledger/internal/application/ledger"
	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveStock(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// MockCodeGenerator is a mock implementation of shared.CodeGenerator
type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Next(ctx context.Context, prefix shared.CodePrefix) (string, error) {
	args := m.Called(ctx, prefix)
	return args.String(0), args.Error(1)
}

// stubRepos exposes only the repositories product creation touches
type stubRepos struct {
	ledger.TransactionalRepositories
	products *MockProductRepository
	codes    *MockCodeGenerator
}

func (r *stubRepos) Products() catalog.ProductRepository { return r.products }
func (r *stubRepos) Codes() shared.CodeGenerator         { return r.codes }

// stubScope runs fn directly against stubRepos
type stubScope struct {
	repos *stubRepos
}

func (s *stubScope) Execute(ctx context.Context, fn func(ctx context.Context, repos ledger.TransactionalRepositories) error) error {
	return fn(ctx, s.repos)
}

func newTestProductService() (*ProductService, *MockProductRepository, *MockCodeGenerator) {
	products := new(MockProductRepository)
	codes := new(MockCodeGenerator)
	svc := NewProductService(products, &stubScope{repos: &stubRepos{products: products, codes: codes}})
	svc.clock = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, products, codes
}

func actorCtx() context.Context {
	return shared.WithActor(context.Background(), shared.Actor{UserID: uuid.New(), Role: shared.RoleCashier})
}

func TestProductService_Create(t *testing.T) {
	t.Run("generates a code when none is given", func(t *testing.T) {
		svc, products, codes := newTestProductService()
		ctx := actorCtx()
		codes.On("Next", ctx, shared.PrefixProduct).Return("PRD00000001", nil)
		products.On("Create", ctx, mock.MatchedBy(func(p *catalog.Product) bool {
			return p.Code == "PRD00000001" && p.Stock.IsZero() && p.CostPrice.IsZero()
		})).Return(nil)

		resp, err := svc.Create(ctx, CreateProductRequest{
			Name:          "Widget",
			Uom:           "pcs",
			PurchasePrice: decimal.NewFromInt(1000),
			SellingPrice:  decimal.NewFromInt(1500),
		})
		require.NoError(t, err)
		assert.Equal(t, "PRD00000001", resp.Code)
		assert.True(t, resp.SellingPrice.Equal(decimal.NewFromInt(1500)))
		assert.True(t, resp.NeedsRestock)
		products.AssertExpectations(t)
		codes.AssertExpectations(t)
	})

	t.Run("rejects a taken code", func(t *testing.T) {
		svc, products, codes := newTestProductService()
		ctx := actorCtx()
		products.On("ExistsByCode", ctx, "X-1").Return(true, nil)

		_, err := svc.Create(ctx, CreateProductRequest{Code: "X-1", Name: "Widget", Uom: "pcs"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		codes.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
	})

	t.Run("rejects negative prices", func(t *testing.T) {
		svc, products, _ := newTestProductService()
		ctx := actorCtx()
		products.On("ExistsByCode", ctx, "X-2").Return(false, nil)

		_, err := svc.Create(ctx, CreateProductRequest{Code: "X-2", Name: "Widget", Uom: "pcs", SellingPrice: decimal.NewFromInt(-1)})
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("requires an actor", func(t *testing.T) {
		svc, _, _ := newTestProductService()
		_, err := svc.Create(context.Background(), CreateProductRequest{Name: "Widget", Uom: "pcs"})
		assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		svc, products, codes := newTestProductService()
		ctx := actorCtx()
		codes.On("Next", ctx, shared.PrefixProduct).Return("PRD00000002", nil)
		products.On("Create", ctx, mock.Anything).Return(errors.New("connection reset"))

		_, err := svc.Create(ctx, CreateProductRequest{Name: "Widget", Uom: "pcs"})
		assert.EqualError(t, err, "connection reset")
	})
}

func TestProductService_GetAndList(t *testing.T) {
	svc, products, _ := newTestProductService()
	ctx := context.Background()
	p, err := catalog.NewProduct("PRD00000001", "Widget", "pcs", decimal.Zero, decimal.NewFromInt(10), decimal.Zero, time.Now())
	require.NoError(t, err)

	products.On("FindByID", ctx, p.ID).Return(p, nil)
	missing := uuid.New()
	products.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	products.On("FindAll", ctx, mock.MatchedBy(func(f catalog.ProductFilter) bool {
		return f.Search == "wid" && f.LowStock && f.Page == 2
	})).Return([]catalog.Product{*p}, int64(21), nil)

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	_, err = svc.GetByID(ctx, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	items, total, err := svc.List(ctx, ProductListFilter{Search: "wid", LowStock: true, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(21), total)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ID)
}
