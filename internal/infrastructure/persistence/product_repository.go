package persistence

import (
	"context"
	"fmt"

	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Product")
	}
	return &product, nil
}

// FindByIDForUpdate finds a product and locks its row
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := forUpdate(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Product")
	}
	return &product, nil
}

// FindByIDs finds all products with the given IDs; missing IDs are skipped
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

// FindAll lists products matching the filter and the total match count
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			db = db.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
		}
		if filter.LowStock {
			db = db.Where("stock <= restock_threshold")
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Scopes(scope, Paginate(filter.Pagination, catalog.ProductSortColumns)).
		Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// ExistsByCode checks if a product code is taken
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", translateDuplicate(err, "Product code"))
	}
	return nil
}

// SaveStock writes stock and cost_price only
func (r *GormProductRepository) SaveStock(ctx context.Context, product *catalog.Product) error {
	result := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"stock":      product.Stock,
			"cost_price": product.CostPrice,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save product stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return translateNotFound(gorm.ErrRecordNotFound, "Product")
	}
	return nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
