package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DependencyEntity names a transaction kind whose detail lines reference products
type DependencyEntity string

const (
	DependencyPurchaseOrder  DependencyEntity = "purchase_order"
	DependencySalesOrder     DependencyEntity = "sales_order"
	DependencyPurchaseReturn DependencyEntity = "purchase_return"
	DependencySalesReturn    DependencyEntity = "sales_return"
)

// AllDependencyEntities is the set scanned before any reversal
var AllDependencyEntities = []DependencyEntity{
	DependencyPurchaseOrder,
	DependencySalesOrder,
	DependencyPurchaseReturn,
	DependencySalesReturn,
}

// DependencyScanner answers whether a later transaction builds on product state.
type DependencyScanner interface {
	// HasLaterDependent reports whether any record of entity created strictly
	// after cutoff, whose status is not excludedStatus, references one of
	// productIDs through its detail lines.
	HasLaterDependent(ctx context.Context, entity DependencyEntity, productIDs []uuid.UUID, cutoff time.Time, excludedStatus Status) (bool, error)
}
