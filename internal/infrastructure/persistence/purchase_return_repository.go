package persistence

import (
	"context"
	"fmt"

	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseReturnRepository implements PurchaseReturnRepository using GORM
type GormPurchaseReturnRepository struct {
	db *gorm.DB
}

// NewGormPurchaseReturnRepository creates a new GormPurchaseReturnRepository
func NewGormPurchaseReturnRepository(db *gorm.DB) *GormPurchaseReturnRepository {
	return &GormPurchaseReturnRepository{db: db}
}

func preloadPurchaseReturn(db *gorm.DB) *gorm.DB {
	return db.Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

// FindByID finds a purchase return with its lines
func (r *GormPurchaseReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseReturn, error) {
	var ret trade.PurchaseReturn
	if err := r.db.WithContext(ctx).Scopes(preloadPurchaseReturn).First(&ret, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Purchase return")
	}
	return &ret, nil
}

// FindByIDForUpdate finds a purchase return and locks its header row
func (r *GormPurchaseReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseReturn, error) {
	var ret trade.PurchaseReturn
	if err := forUpdate(r.db.WithContext(ctx)).Scopes(preloadPurchaseReturn).First(&ret, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Purchase return")
	}
	return &ret, nil
}

// FindAll lists purchase returns (headers only) matching the filter
func (r *GormPurchaseReturnRepository) FindAll(ctx context.Context, filter trade.PurchaseReturnFilter) ([]trade.PurchaseReturn, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.PurchaseOrderID != nil {
			db = db.Where("purchase_order_id = ?", *filter.PurchaseOrderID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		if filter.ReturnType != nil {
			db = db.Where("return_type = ?", *filter.ReturnType)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&trade.PurchaseReturn{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchase returns: %w", err)
	}
	var returns []trade.PurchaseReturn
	if err := r.db.WithContext(ctx).
		Scopes(scope, Paginate(filter.Pagination, trade.PurchaseReturnSortColumns)).
		Find(&returns).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase returns: %w", err)
	}
	return returns, total, nil
}

// CountActiveByOrder counts non-cancelled returns of a purchase order
func (r *GormPurchaseReturnRepository) CountActiveByOrder(ctx context.Context, purchaseOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.PurchaseReturn{}).
		Where("purchase_order_id = ? AND status <> ?", purchaseOrderID, trade.StatusCancelled).
		Count(&count).Error
	return count, err
}

// Create inserts the return together with its lines
func (r *GormPurchaseReturnRepository) Create(ctx context.Context, ret *trade.PurchaseReturn) error {
	if err := r.db.WithContext(ctx).Create(ret).Error; err != nil {
		return fmt.Errorf("failed to create purchase return: %w", err)
	}
	return nil
}

// Save writes the header only
func (r *GormPurchaseReturnRepository) Save(ctx context.Context, ret *trade.PurchaseReturn) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(ret).Error; err != nil {
		return fmt.Errorf("failed to save purchase return: %w", err)
	}
	return nil
}

var _ trade.PurchaseReturnRepository = (*GormPurchaseReturnRepository)(nil)
