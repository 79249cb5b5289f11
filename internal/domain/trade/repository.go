package trade

import (
	"context"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseOrderFilter narrows a purchase order listing
type PurchaseOrderFilter struct {
	shared.Pagination
	shared.DateRange
	SupplierID    *uuid.UUID
	Status        *Status
	PaymentStatus *PaymentStatus
	Search        string // matches code or remarks
}

// SalesOrderFilter narrows a sales order listing
type SalesOrderFilter struct {
	shared.Pagination
	shared.DateRange
	CustomerID     *uuid.UUID
	ProgressStatus *Status
	PaymentStatus  *PaymentStatus
	Search         string // matches code or remarks
}

// PurchaseReturnFilter narrows a purchase return listing
type PurchaseReturnFilter struct {
	shared.Pagination
	PurchaseOrderID *uuid.UUID
	Status          *Status
	ReturnType      *ReturnType
}

// SalesReturnFilter narrows a sales return listing
type SalesReturnFilter struct {
	shared.Pagination
	SalesOrderID *uuid.UUID
	Status       *Status
}

// Sortable columns per listing, beyond created_at
var (
	PurchaseOrderSortColumns  = []string{"code", "grand_total", "status", "updated_at"}
	SalesOrderSortColumns     = []string{"code", "grand_total", "progress_status", "entry_date", "updated_at"}
	PurchaseReturnSortColumns = []string{"code", "grand_total", "status"}
	SalesReturnSortColumns    = []string{"code", "grand_total"}
)

// PurchaseOrderRepository defines persistence for purchase orders.
// Loaded orders always carry their details and payment history.
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	// FindByIDForUpdate locks the order row until the enclosing transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByDetailID(ctx context.Context, detailID uuid.UUID) (*PurchaseOrder, error)
	FindAll(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrder, int64, error)
	Create(ctx context.Context, order *PurchaseOrder) error
	// Save writes the header and reconciles details and payments by set
	// difference against storage.
	Save(ctx context.Context, order *PurchaseOrder) error
	// Delete removes the order, its details and its payment history
	Delete(ctx context.Context, id uuid.UUID) error
}

// SalesOrderRepository defines persistence for sales orders.
// Loaded orders always carry their product, service and payment rows.
type SalesOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindAll(ctx context.Context, filter SalesOrderFilter) ([]SalesOrder, int64, error)
	Create(ctx context.Context, order *SalesOrder) error
	Save(ctx context.Context, order *SalesOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PurchaseReturnRepository defines persistence for purchase returns
type PurchaseReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseReturn, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseReturn, error)
	FindAll(ctx context.Context, filter PurchaseReturnFilter) ([]PurchaseReturn, int64, error)
	// CountActiveByOrder counts non-cancelled returns of a purchase order
	CountActiveByOrder(ctx context.Context, purchaseOrderID uuid.UUID) (int64, error)
	Create(ctx context.Context, ret *PurchaseReturn) error
	// Save writes the header only; return lines are immutable
	Save(ctx context.Context, ret *PurchaseReturn) error
}

// SalesReturnRepository defines persistence for sales returns
type SalesReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesReturn, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SalesReturn, error)
	FindAll(ctx context.Context, filter SalesReturnFilter) ([]SalesReturn, int64, error)
	CountActiveByOrder(ctx context.Context, salesOrderID uuid.UUID) (int64, error)
	Create(ctx context.Context, ret *SalesReturn) error
	Save(ctx context.Context, ret *SalesReturn) error
}
