package persistence

import (
	"context"
	"fmt"

	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesReturnRepository implements SalesReturnRepository using GORM
type GormSalesReturnRepository struct {
	db *gorm.DB
}

// NewGormSalesReturnRepository creates a new GormSalesReturnRepository
func NewGormSalesReturnRepository(db *gorm.DB) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{db: db}
}

func preloadSalesReturn(db *gorm.DB) *gorm.DB {
	byCreation := func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }
	return db.Preload("ProductDetails", byCreation).Preload("ServiceDetails", byCreation)
}

// FindByID finds a sales return with its lines
func (r *GormSalesReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	var ret trade.SalesReturn
	if err := r.db.WithContext(ctx).Scopes(preloadSalesReturn).First(&ret, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Sales return")
	}
	return &ret, nil
}

// FindByIDForUpdate finds a sales return and locks its header row
func (r *GormSalesReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	var ret trade.SalesReturn
	if err := forUpdate(r.db.WithContext(ctx)).Scopes(preloadSalesReturn).First(&ret, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Sales return")
	}
	return &ret, nil
}

// FindAll lists sales returns (headers only) matching the filter
func (r *GormSalesReturnRepository) FindAll(ctx context.Context, filter trade.SalesReturnFilter) ([]trade.SalesReturn, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.SalesOrderID != nil {
			db = db.Where("sales_order_id = ?", *filter.SalesOrderID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&trade.SalesReturn{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales returns: %w", err)
	}
	var returns []trade.SalesReturn
	if err := r.db.WithContext(ctx).
		Scopes(scope, Paginate(filter.Pagination, trade.SalesReturnSortColumns)).
		Find(&returns).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sales returns: %w", err)
	}
	return returns, total, nil
}

// CountActiveByOrder counts non-cancelled returns of a sales order
func (r *GormSalesReturnRepository) CountActiveByOrder(ctx context.Context, salesOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.SalesReturn{}).
		Where("sales_order_id = ? AND status <> ?", salesOrderID, trade.StatusCancelled).
		Count(&count).Error
	return count, err
}

// Create inserts the return together with its lines
func (r *GormSalesReturnRepository) Create(ctx context.Context, ret *trade.SalesReturn) error {
	if err := r.db.WithContext(ctx).Create(ret).Error; err != nil {
		return fmt.Errorf("failed to create sales return: %w", err)
	}
	return nil
}

// Save writes the header only
func (r *GormSalesReturnRepository) Save(ctx context.Context, ret *trade.SalesReturn) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(ret).Error; err != nil {
		return fmt.Errorf("failed to save sales return: %w", err)
	}
	return nil
}

var _ trade.SalesReturnRepository = (*GormSalesReturnRepository)(nil)
