package catalog

import (
	"context"
	"strings"

	"github.com/erp/tradeledger/internal/application/ledger"
	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations.
// Stock and cost are never written here; they belong to the stock ledger.
type ProductService struct {
	productRepo catalog.ProductRepository
	txScope     ledger.TransactionScope
	clock       shared.Clock
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, txScope ledger.TransactionScope) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		txScope:     txScope,
		clock:       shared.SystemClock,
	}
}

// Create creates a new product with zero stock
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if _, err := shared.RequireActor(ctx); err != nil {
		return nil, err
	}

	var product *catalog.Product
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		code := strings.TrimSpace(req.Code)
		if code == "" {
			next, err := repos.Codes().Next(ctx, shared.PrefixProduct)
			if err != nil {
				return err
			}
			code = next
		} else {
			exists, err := repos.Products().ExistsByCode(ctx, code)
			if err != nil {
				return err
			}
			if exists {
				return shared.ErrAlreadyExists.WithMessage("Product with code %s already exists", code)
			}
		}

		var err error
		product, err = catalog.NewProduct(code, req.Name, req.Uom, req.PurchasePrice, req.SellingPrice, req.RestockThreshold, s.clock())
		if err != nil {
			return err
		}
		return repos.Products().Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("product created", zap.String("code", product.Code), zap.String("product_id", product.ID.String()))
	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves a list of products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}
