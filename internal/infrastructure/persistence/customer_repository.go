package persistence

import (
	"context"
	"fmt"

	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var customer partner.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Customer")
	}
	return &customer, nil
}

// FindAll lists customers matching the filter and the total match count
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter partner.PartnerFilter) ([]partner.Customer, int64, error) {
	scope := partnerSearch(filter.Search)

	var total int64
	if err := r.db.WithContext(ctx).Model(&partner.Customer{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}
	var customers []partner.Customer
	if err := r.db.WithContext(ctx).
		Scopes(scope, Paginate(filter.Pagination, partner.PartnerSortColumns)).
		Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, total, nil
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", translateDuplicate(err, "Customer code"))
	}
	return nil
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
