package trade

import (
	"context"
	"time"

	"github.com/erp/tradeledger/internal/application/ledger"
	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
)

// clockHolder gives services a replaceable time source
type clockHolder struct {
	clock shared.Clock
}

// SetClock replaces the time source, used by tests
func (h *clockHolder) SetClock(clock shared.Clock) {
	if clock != nil {
		h.clock = clock
	}
}

func (h *clockHolder) now() time.Time {
	if h.clock == nil {
		return shared.SystemClock()
	}
	return h.clock()
}

// ensureProductsExist fails with NotFound naming the first unknown product
func ensureProductsExist(ctx context.Context, products catalog.ProductRepository, ids []uuid.UUID) error {
	wanted := ledger.LockOrder(ids)
	if len(wanted) == 0 {
		return nil
	}
	found, err := products.FindByIDs(ctx, wanted)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, p := range found {
		known[p.ID] = true
	}
	for _, id := range wanted {
		if !known[id] {
			return shared.ErrNotFound.WithMessage("Product %s not found", id)
		}
	}
	return nil
}
