package ledger

import (
	"bytes"
	"context"
	"sort"

	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/erp/tradeledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockLedger owns product stock and weighted-average cost. Every movement
// locks the product row, applies the domain rule and writes stock and cost
// back in the caller's transaction.
type StockLedger struct {
	products catalog.ProductRepository
}

// NewStockLedger creates a StockLedger over a transaction-scoped product repository
func NewStockLedger(products catalog.ProductRepository) *StockLedger {
	return &StockLedger{products: products}
}

// LockOrder returns the distinct ids sorted. Every transaction that touches
// several products locks them in this order.
func LockOrder(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// Lock takes the row locks for productIDs in LockOrder before any movement
// runs. Later movements on the same rows re-read them under the locks the
// transaction already holds.
func (l *StockLedger) Lock(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	locked := make(map[uuid.UUID]*catalog.Product, len(productIDs))
	for _, id := range LockOrder(productIDs) {
		p, err := l.products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}

// Receive adds purchased stock at unitCost and re-averages the cost price
func (l *StockLedger) Receive(ctx context.Context, productID uuid.UUID, quantity, unitCost decimal.Decimal) (*catalog.Product, error) {
	return l.move(ctx, "receive", productID, quantity, func(p *catalog.Product) error {
		return p.Receive(quantity, unitCost)
	})
}

// ReverseReceipt removes stock that was received at unitCost and backs its
// value out of the cost price
func (l *StockLedger) ReverseReceipt(ctx context.Context, productID uuid.UUID, quantity, unitCost decimal.Decimal) (*catalog.Product, error) {
	return l.move(ctx, "reverse_receipt", productID, quantity, func(p *catalog.Product) error {
		return p.ReverseReceipt(quantity, unitCost)
	})
}

// Issue removes stock at the current cost
func (l *StockLedger) Issue(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal) (*catalog.Product, error) {
	return l.move(ctx, "issue", productID, quantity, func(p *catalog.Product) error {
		return p.Issue(quantity)
	})
}

// Restock puts stock back at the current cost
func (l *StockLedger) Restock(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal) (*catalog.Product, error) {
	return l.move(ctx, "restock", productID, quantity, func(p *catalog.Product) error {
		return p.Restock(quantity)
	})
}

func (l *StockLedger) move(ctx context.Context, op string, productID uuid.UUID, quantity decimal.Decimal, apply func(*catalog.Product) error) (_ *catalog.Product, err error) {
	ctx, span := telemetry.StartSpan(ctx, "stock."+op,
		telemetry.AttrProductID, productID,
		telemetry.AttrQuantity, quantity,
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	product, err := l.products.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	before := product.Stock
	if err := apply(product); err != nil {
		return nil, err
	}
	if err := l.products.SaveStock(ctx, product); err != nil {
		return nil, err
	}
	logger.L(ctx).Debug("stock moved",
		zap.String("op", op),
		zap.String("product_id", productID.String()),
		zap.String("quantity", quantity.String()),
		zap.String("stock_before", before.String()),
		zap.String("stock_after", product.Stock.String()),
		zap.String("cost_price", product.CostPrice.String()),
	)
	return product, nil
}
