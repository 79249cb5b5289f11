package persistence

import (
	"context"
	"fmt"

	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func preloadPurchaseOrder(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC, id ASC") })
}

// FindByID finds a purchase order with its details and payments
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	if err := r.db.WithContext(ctx).Scopes(preloadPurchaseOrder).First(&order, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Purchase order")
	}
	return &order, nil
}

// FindByIDForUpdate finds a purchase order and locks its header row
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	if err := forUpdate(r.db.WithContext(ctx)).Scopes(preloadPurchaseOrder).First(&order, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Purchase order")
	}
	return &order, nil
}

// FindByDetailID finds the purchase order owning a detail line
func (r *GormPurchaseOrderRepository) FindByDetailID(ctx context.Context, detailID uuid.UUID) (*trade.PurchaseOrder, error) {
	var detail trade.PurchaseOrderDetail
	if err := r.db.WithContext(ctx).Select("purchase_order_id").First(&detail, "id = ?", detailID).Error; err != nil {
		return nil, translateNotFound(err, "Purchase order detail")
	}
	return r.FindByID(ctx, detail.PurchaseOrderID)
}

// FindAll lists purchase orders (headers only) matching the filter
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter trade.PurchaseOrderFilter) ([]trade.PurchaseOrder, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.SupplierID != nil {
			db = db.Where("supplier_id = ?", *filter.SupplierID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		if filter.PaymentStatus != nil {
			db = db.Where("payment_status = ?", *filter.PaymentStatus)
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			db = db.Where("LOWER(code) LIKE ? OR LOWER(remarks) LIKE ?", pattern, pattern)
		}
		return dateRange(db, filter.DateRange)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchase orders: %w", err)
	}
	var orders []trade.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Scopes(scope, Paginate(filter.Pagination, trade.PurchaseOrderSortColumns)).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	return orders, total, nil
}

// Create inserts the order together with its details and payments
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create purchase order: %w", err)
	}
	return nil
}

// Save updates the header and reconciles details and payments: stored rows
// missing from the aggregate are deleted, the rest are upserted.
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			return fmt.Errorf("failed to save purchase order: %w", err)
		}

		detailIDs := make([]uuid.UUID, len(order.Details))
		for i := range order.Details {
			order.Details[i].PurchaseOrderID = order.ID
			detailIDs[i] = order.Details[i].ID
		}
		if err := deleteStaleChildren(tx, &trade.PurchaseOrderDetail{}, "purchase_order_id", order.ID, detailIDs); err != nil {
			return err
		}
		for i := range order.Details {
			if err := tx.Save(&order.Details[i]).Error; err != nil {
				return fmt.Errorf("failed to save purchase order detail: %w", err)
			}
		}

		paymentIDs := make([]uuid.UUID, len(order.Payments))
		for i := range order.Payments {
			order.Payments[i].PurchaseOrderID = order.ID
			paymentIDs[i] = order.Payments[i].ID
		}
		if err := deleteStaleChildren(tx, &trade.PurchaseOrderPayment{}, "purchase_order_id", order.ID, paymentIDs); err != nil {
			return err
		}
		for i := range order.Payments {
			if err := tx.Save(&order.Payments[i]).Error; err != nil {
				return fmt.Errorf("failed to save purchase order payment: %w", err)
			}
		}
		return nil
	})
}

// Delete removes the order with its details and payment history
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", id).Delete(&trade.PurchaseOrderDetail{}).Error; err != nil {
			return fmt.Errorf("failed to delete purchase order details: %w", err)
		}
		if err := tx.Where("purchase_order_id = ?", id).Delete(&trade.PurchaseOrderPayment{}).Error; err != nil {
			return fmt.Errorf("failed to delete purchase order payments: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&trade.PurchaseOrder{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete purchase order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return translateNotFound(gorm.ErrRecordNotFound, "Purchase order")
		}
		return nil
	})
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
