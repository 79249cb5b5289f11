package ledger

import (
	"context"

	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
)

// TransactionScope provides transactional access to every repository that an
// order or return mutation touches. All repository operations made inside fn
// share one database transaction and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction. fn receives the
	// transaction's context, which carries its deadline; repository calls
	// made inside fn must use it. If fn returns an error, the transaction is
	// rolled back.
	Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
//
// Stock and receivables are only mutated through the ledgers built on top of
// Products and Suppliers; services never write those columns directly.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Suppliers() partner.SupplierRepository
	Customers() partner.CustomerRepository
	PurchaseOrders() trade.PurchaseOrderRepository
	SalesOrders() trade.SalesOrderRepository
	PurchaseReturns() trade.PurchaseReturnRepository
	SalesReturns() trade.SalesReturnRepository
	// Codes returns the code generator; the database backend shares the transaction.
	Codes() shared.CodeGenerator
	// Dependencies returns the causality scanner reading through the transaction.
	Dependencies() trade.DependencyScanner
}
