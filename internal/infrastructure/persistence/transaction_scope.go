package persistence

import (
	"context"
	"time"

	"github.com/erp/tradeledger/internal/application/ledger"
	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/erp/tradeledger/internal/infrastructure/telemetry"
	"gorm.io/gorm"
)

// GormTransactionScope implements ledger.TransactionScope using GORM transactions.
// Every Execute is bounded by the configured transaction timeout.
type GormTransactionScope struct {
	db        *gorm.DB
	timeout   time.Duration
	codeWidth int
	codes     shared.CodeGenerator
}

// ScopeOption configures a GormTransactionScope
type ScopeOption func(*GormTransactionScope)

// WithTxTimeout bounds the execution time of every transaction
func WithTxTimeout(timeout time.Duration) ScopeOption {
	return func(s *GormTransactionScope) {
		s.timeout = timeout
	}
}

// WithCodeWidth sets the zero-padded width of generated codes
func WithCodeWidth(width int) ScopeOption {
	return func(s *GormTransactionScope) {
		s.codeWidth = width
	}
}

// WithCodeGenerator replaces the in-transaction code sequence, e.g. with a
// redis-backed counter.
func WithCodeGenerator(codes shared.CodeGenerator) ScopeOption {
	return func(s *GormTransactionScope) {
		s.codes = codes
	}
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, opts ...ScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db, codeWidth: shared.DefaultCodeWidth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs fn within a database transaction under a "db.transaction" span.
// If fn returns an error or the timeout elapses, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos ledger.TransactionalRepositories) error) error {
	ctx, span := telemetry.StartSpan(ctx, "db.transaction")
	defer span.End()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormTransactionalRepositories{tx: tx, codeWidth: s.codeWidth, codes: s.codes})
	})
	telemetry.RecordError(span, err)
	return err
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx        *gorm.DB
	codeWidth int
	codes     shared.CodeGenerator
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Suppliers() partner.SupplierRepository {
	return NewGormSupplierRepository(r.tx)
}

func (r *gormTransactionalRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseOrders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) SalesOrders() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseReturns() trade.PurchaseReturnRepository {
	return NewGormPurchaseReturnRepository(r.tx)
}

func (r *gormTransactionalRepositories) SalesReturns() trade.SalesReturnRepository {
	return NewGormSalesReturnRepository(r.tx)
}

func (r *gormTransactionalRepositories) Codes() shared.CodeGenerator {
	if r.codes != nil {
		return r.codes
	}
	return NewGormCodeSequence(r.tx, r.codeWidth)
}

func (r *gormTransactionalRepositories) Dependencies() trade.DependencyScanner {
	return NewGormDependencyScanner(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ ledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ ledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
