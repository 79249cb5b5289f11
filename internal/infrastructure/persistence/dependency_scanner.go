package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// dependencyPath describes how an entity's header reaches product IDs
type dependencyPath struct {
	table         string
	joins         []string
	statusColumn  string
	productColumn string
}

var dependencyPaths = map[trade.DependencyEntity]dependencyPath{
	trade.DependencyPurchaseOrder: {
		table:         "purchase_orders",
		joins:         []string{"JOIN purchase_order_details d ON d.purchase_order_id = h.id"},
		statusColumn:  "status",
		productColumn: "d.product_id",
	},
	trade.DependencySalesOrder: {
		table:         "sales_orders",
		joins:         []string{"JOIN sales_order_product_details d ON d.sales_order_id = h.id"},
		statusColumn:  "progress_status",
		productColumn: "d.product_id",
	},
	trade.DependencyPurchaseReturn: {
		table: "purchase_returns",
		joins: []string{
			"JOIN purchase_return_details d ON d.purchase_return_id = h.id",
			"JOIN purchase_order_details pod ON pod.id = d.purchase_order_detail_id",
		},
		statusColumn:  "status",
		productColumn: "pod.product_id",
	},
	trade.DependencySalesReturn: {
		table: "sales_returns",
		joins: []string{
			"JOIN sales_return_product_details d ON d.sales_return_id = h.id",
			"JOIN sales_order_product_details sopd ON sopd.id = d.sales_order_product_detail_id",
		},
		statusColumn:  "status",
		productColumn: "sopd.product_id",
	},
}

// GormDependencyScanner answers causality questions with one count query per entity
type GormDependencyScanner struct {
	db *gorm.DB
}

// NewGormDependencyScanner creates a new GormDependencyScanner
func NewGormDependencyScanner(db *gorm.DB) *GormDependencyScanner {
	return &GormDependencyScanner{db: db}
}

// HasLaterDependent implements trade.DependencyScanner
func (s *GormDependencyScanner) HasLaterDependent(ctx context.Context, entity trade.DependencyEntity, productIDs []uuid.UUID, cutoff time.Time, excludedStatus trade.Status) (bool, error) {
	path, ok := dependencyPaths[entity]
	if !ok {
		return false, fmt.Errorf("unknown dependency entity %q", entity)
	}
	if len(productIDs) == 0 {
		return false, nil
	}

	query := s.db.WithContext(ctx).Table(path.table + " AS h")
	for _, join := range path.joins {
		query = query.Joins(join)
	}
	var count int64
	err := query.
		Where("h.created_at > ?", cutoff).
		Where("h."+path.statusColumn+" <> ?", excludedStatus).
		Where(path.productColumn+" IN ?", productIDs).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to scan %s dependents: %w", entity, err)
	}
	return count > 0, nil
}

var _ trade.DependencyScanner = (*GormDependencyScanner)(nil)
