package persistence

import (
	"context"
	"fmt"

	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

func preloadSalesOrder(db *gorm.DB) *gorm.DB {
	byCreation := func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }
	return db.
		Preload("ProductDetails", byCreation).
		Preload("ServiceDetails", byCreation).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC, id ASC") })
}

// FindByID finds a sales order with its lines and payments
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	if err := r.db.WithContext(ctx).Scopes(preloadSalesOrder).First(&order, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Sales order")
	}
	return &order, nil
}

// FindByIDForUpdate finds a sales order and locks its header row
func (r *GormSalesOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	if err := forUpdate(r.db.WithContext(ctx)).Scopes(preloadSalesOrder).First(&order, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Sales order")
	}
	return &order, nil
}

// FindAll lists sales orders (headers only) matching the filter
func (r *GormSalesOrderRepository) FindAll(ctx context.Context, filter trade.SalesOrderFilter) ([]trade.SalesOrder, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.CustomerID != nil {
			db = db.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.ProgressStatus != nil {
			db = db.Where("progress_status = ?", *filter.ProgressStatus)
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
	if err := r.db.WithContext(ctx).Model(&trade.SalesOrder{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales orders: %w", err)
	}
	var orders []trade.SalesOrder
	if err := r.db.WithContext(ctx).
		Scopes(scope, Paginate(filter.Pagination, trade.SalesOrderSortColumns)).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sales orders: %w", err)
	}
	return orders, total, nil
}

// Create inserts the order together with its lines and payments
func (r *GormSalesOrderRepository) Create(ctx context.Context, order *trade.SalesOrder) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create sales order: %w", err)
	}
	return nil
}

// Save updates the header and reconciles product lines, service lines and
// payments by set difference.
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			return fmt.Errorf("failed to save sales order: %w", err)
		}

		productIDs := make([]uuid.UUID, len(order.ProductDetails))
		for i := range order.ProductDetails {
			order.ProductDetails[i].SalesOrderID = order.ID
			productIDs[i] = order.ProductDetails[i].ID
		}
		if err := deleteStaleChildren(tx, &trade.SalesOrderProductDetail{}, "sales_order_id", order.ID, productIDs); err != nil {
			return err
		}
		for i := range order.ProductDetails {
			if err := tx.Save(&order.ProductDetails[i]).Error; err != nil {
				return fmt.Errorf("failed to save sales order product detail: %w", err)
			}
		}

		serviceIDs := make([]uuid.UUID, len(order.ServiceDetails))
		for i := range order.ServiceDetails {
			order.ServiceDetails[i].SalesOrderID = order.ID
			serviceIDs[i] = order.ServiceDetails[i].ID
		}
		if err := deleteStaleChildren(tx, &trade.SalesOrderServiceDetail{}, "sales_order_id", order.ID, serviceIDs); err != nil {
			return err
		}
		for i := range order.ServiceDetails {
			if err := tx.Save(&order.ServiceDetails[i]).Error; err != nil {
				return fmt.Errorf("failed to save sales order service detail: %w", err)
			}
		}

		paymentIDs := make([]uuid.UUID, len(order.Payments))
		for i := range order.Payments {
			order.Payments[i].SalesOrderID = order.ID
			paymentIDs[i] = order.Payments[i].ID
		}
		if err := deleteStaleChildren(tx, &trade.SalesOrderPayment{}, "sales_order_id", order.ID, paymentIDs); err != nil {
			return err
		}
		for i := range order.Payments {
			if err := tx.Save(&order.Payments[i]).Error; err != nil {
				return fmt.Errorf("failed to save sales order payment: %w", err)
			}
		}
		return nil
	})
}

// Delete removes the order with its lines and payment history
func (r *GormSalesOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{
			&trade.SalesOrderProductDetail{},
			&trade.SalesOrderServiceDetail{},
			&trade.SalesOrderPayment{},
		} {
			if err := tx.Where("sales_order_id = ?", id).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete sales order rows: %w", err)
			}
		}
		result := tx.Where("id = ?", id).Delete(&trade.SalesOrder{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete sales order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return translateNotFound(gorm.ErrRecordNotFound, "Sales order")
		}
		return nil
	})
}

var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
