package partner

import (
	"context"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
)

// PartnerFilter narrows a supplier or customer listing
type PartnerFilter struct {
	shared.Pagination
	Search string
}

// PartnerSortColumns lists the columns a partner listing may be ordered by
var PartnerSortColumns = []string{"code", "name"}

// SupplierRepository defines persistence for suppliers
type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	// FindByIDForUpdate loads the supplier and locks its row until the
	// enclosing transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Supplier, error)
	FindAll(ctx context.Context, filter PartnerFilter) ([]Supplier, int64, error)
	Create(ctx context.Context, supplier *Supplier) error
	// SaveReceivables persists only the receivables column.
	SaveReceivables(ctx context.Context, supplier *Supplier) error
}

// CustomerRepository defines persistence for customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindAll(ctx context.Context, filter PartnerFilter) ([]Customer, int64, error)
	Create(ctx context.Context, customer *Customer) error
}
