package ledger

import (
	"context"

	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceivablesLedger owns supplier receivables. Applications are bounded by
// the receivables present when the supplier row is locked; releases are
// bounded by the supplier's limit.
type ReceivablesLedger struct {
	suppliers partner.SupplierRepository
}

// NewReceivablesLedger creates a ReceivablesLedger over a transaction-scoped supplier repository
func NewReceivablesLedger(suppliers partner.SupplierRepository) *ReceivablesLedger {
	return &ReceivablesLedger{suppliers: suppliers}
}

// Apply consumes amount of the supplier's receivables
func (l *ReceivablesLedger) Apply(ctx context.Context, supplierID uuid.UUID, amount decimal.Decimal) (*partner.Supplier, error) {
	return l.adjust(ctx, "apply", supplierID, amount, func(s *partner.Supplier) error {
		return s.ApplyReceivables(amount)
	})
}

// Release returns amount to the supplier's receivables
func (l *ReceivablesLedger) Release(ctx context.Context, supplierID uuid.UUID, amount decimal.Decimal) (*partner.Supplier, error) {
	return l.adjust(ctx, "release", supplierID, amount, func(s *partner.Supplier) error {
		return s.ReleaseReceivables(amount)
	})
}

// Adjust applies a signed change of applied receivables: positive applies,
// negative releases, zero is a no-op that does not touch the supplier row.
func (l *ReceivablesLedger) Adjust(ctx context.Context, supplierID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	_, err := l.adjust(ctx, "adjust", supplierID, delta, func(s *partner.Supplier) error {
		return s.AdjustReceivables(delta)
	})
	return err
}

func (l *ReceivablesLedger) adjust(ctx context.Context, op string, supplierID uuid.UUID, amount decimal.Decimal, apply func(*partner.Supplier) error) (*partner.Supplier, error) {
	supplier, err := l.suppliers.FindByIDForUpdate(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	before := supplier.Receivables
	if err := apply(supplier); err != nil {
		return nil, err
	}
	if err := l.suppliers.SaveReceivables(ctx, supplier); err != nil {
		return nil, err
	}
	logger.L(ctx).Debug("receivables adjusted",
		zap.String("op", op),
		zap.String("supplier_id", supplierID.String()),
		zap.String("amount", amount.String()),
		zap.String("receivables_before", before.String()),
		zap.String("receivables_after", supplier.Receivables.String()),
	)
	return supplier, nil
}
