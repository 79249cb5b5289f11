package persistence

import (
	"context"
	"fmt"

	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var supplier partner.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Supplier")
	}
	return &supplier, nil
}

// FindByIDForUpdate finds a supplier and locks its row
func (r *GormSupplierRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var supplier partner.Supplier
	if err := forUpdate(r.db.WithContext(ctx)).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Supplier")
	}
	return &supplier, nil
}

// FindAll lists suppliers matching the filter and the total match count
func (r *GormSupplierRepository) FindAll(ctx context.Context, filter partner.PartnerFilter) ([]partner.Supplier, int64, error) {
	scope := partnerSearch(filter.Search)

	var total int64
	if err := r.db.WithContext(ctx).Model(&partner.Supplier{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count suppliers: %w", err)
	}
	var suppliers []partner.Supplier
	if err := r.db.WithContext(ctx).
		Scopes(scope, Paginate(filter.Pagination, partner.PartnerSortColumns)).
		Find(&suppliers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, total, nil
}

// Create inserts a new supplier
func (r *GormSupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return fmt.Errorf("failed to create supplier: %w", translateDuplicate(err, "Supplier code"))
	}
	return nil
}

// SaveReceivables writes the receivables column only
func (r *GormSupplierRepository) SaveReceivables(ctx context.Context, supplier *partner.Supplier) error {
	result := r.db.WithContext(ctx).Model(&partner.Supplier{}).
		Where("id = ?", supplier.ID).
		Update("receivables", supplier.Receivables)
	if result.Error != nil {
		return fmt.Errorf("failed to save supplier receivables: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return translateNotFound(gorm.ErrRecordNotFound, "Supplier")
	}
	return nil
}

func partnerSearch(search string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		pattern := likePattern(search)
		return db.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}
}

var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
