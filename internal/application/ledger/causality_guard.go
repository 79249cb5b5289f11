package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/erp/tradeledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CausalityGuard refuses to reverse a ledger effect once a later, still
// active transaction has built on the same products.
type CausalityGuard struct {
	scanner trade.DependencyScanner
}

// NewCausalityGuard creates a CausalityGuard over a transaction-scoped scanner
func NewCausalityGuard(scanner trade.DependencyScanner) *CausalityGuard {
	return &CausalityGuard{scanner: scanner}
}

// Check scans every dependency entity for a non-cancelled record created
// strictly after cutoff that references one of productIDs. subject names the
// record being reversed and only shapes the error message.
func (g *CausalityGuard) Check(ctx context.Context, subject string, productIDs []uuid.UUID, cutoff time.Time) error {
	if len(productIDs) == 0 {
		return nil
	}
	ctx, span := telemetry.StartSpan(ctx, "causality.check", "subject", subject)
	defer span.End()
	for _, entity := range trade.AllDependencyEntities {
		found, err := g.scanner.HasLaterDependent(ctx, entity, productIDs, cutoff, trade.StatusCancelled)
		if err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		if found {
			telemetry.AddEvent(span, "blocked", "dependent", string(entity))
			logger.L(ctx).Info("reversal blocked by later transaction",
				zap.String("subject", subject),
				zap.String("dependent", string(entity)),
				zap.Time("cutoff", cutoff),
			)
			return shared.ErrCausalityConflict.WithMessage(
				"Cannot cancel %s: a later %s references the same products", subject, strings.ReplaceAll(string(entity), "_", " "))
		}
	}
	return nil
}
