package catalog

import (
	"context"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductFilter narrows a product listing
type ProductFilter struct {
	shared.Pagination
	Search   string // matches code or name
	LowStock bool   // stock <= restock_threshold
}

// ProductSortColumns lists the columns a product listing may be ordered by
var ProductSortColumns = []string{"code", "name", "stock", "updated_at"}

// ProductRepository defines persistence for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate loads the product and locks its row until the
	// enclosing transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, product *Product) error
	// SaveStock persists only the ledger-owned columns (stock, cost_price).
	SaveStock(ctx context.Context, product *Product) error
}
