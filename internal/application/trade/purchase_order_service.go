package trade

import (
	"context"

	"github.com/erp/tradeledger/internal/application/ledger"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	clockHolder
	orderRepo trade.PurchaseOrderRepository
	txScope   ledger.TransactionScope
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(orderRepo trade.PurchaseOrderRepository, txScope ledger.TransactionScope) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo: orderRepo,
		txScope:   txScope,
	}
}

// Create creates a new in-progress purchase order with a fresh code
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	lines := toPurchaseOrderLines(req.Details)

	var order *trade.PurchaseOrder
	err = s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		if _, err := repos.Suppliers().FindByID(ctx, req.SupplierID); err != nil {
			return err
		}
		productIDs := make([]uuid.UUID, len(lines))
		for i, l := range lines {
			productIDs[i] = l.ProductID
		}
		if err := ensureProductsExist(ctx, repos.Products(), productIDs); err != nil {
			return err
		}

		code, err := repos.Codes().Next(ctx, shared.PrefixPurchaseOrder)
		if err != nil {
			return err
		}
		now := s.now()
		order, err = trade.NewPurchaseOrder(code, req.SupplierID, lines, req.Remarks, now)
		if err != nil {
			return err
		}
		order.CreatedBy = actor.UserID
		if err := order.RecordInitialPayment(req.PaidAmount, req.PaymentMethod, actor.UserID, now); err != nil {
			return err
		}
		return repos.PurchaseOrders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("purchase order created",
		zap.String("code", order.Code),
		zap.String("order_id", order.ID.String()),
		zap.String("grand_total", order.GrandTotal.String()),
	)
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order with its details and payment history
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPurchaseOrderListResponses(orders), total, nil
}

// Update resubmits the lines and applied receivables of an in-progress order.
// The supplier absorbs the change in applied receivables; payment history is
// cleared when the new grand total falls below what was already paid.
func (s *PurchaseOrderService) Update(ctx context.Context, id uuid.UUID, req UpdatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if _, err := shared.RequireActor(ctx); err != nil {
		return nil, err
	}
	lines := toPurchaseOrderLines(req.Details)

	var order *trade.PurchaseOrder
	var paymentsReset bool
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !order.CanModify() {
			return shared.ErrInvalidTransition.WithMessage("Cannot modify purchase order in %s status", order.Status)
		}
		productIDs := make([]uuid.UUID, len(lines))
		for i, l := range lines {
			productIDs[i] = l.ProductID
		}
		if err := ensureProductsExist(ctx, repos.Products(), productIDs); err != nil {
			return err
		}

		now := s.now()
		if err := order.ReplaceDetails(lines, now); err != nil {
			return err
		}
		delta, err := order.SetAppliedReceivables(req.AppliedReceivables)
		if err != nil {
			return err
		}
		if err := ledger.NewReceivablesLedger(repos.Suppliers()).Adjust(ctx, order.SupplierID, delta); err != nil {
			return err
		}
		paymentsReset = order.ResetPaymentsIfOverpaid()
		if req.Remarks != nil {
			order.Remarks = *req.Remarks
		}
		order.Touch(now)
		return repos.PurchaseOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	log := logger.L(ctx).With(zap.String("code", order.Code), zap.String("order_id", order.ID.String()))
	if paymentsReset {
		log.Warn("purchase order payments cleared after edit", zap.String("grand_total", order.GrandTotal.String()))
	}
	log.Info("purchase order updated")
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Delete removes an in-progress order and gives its applied receivables back
// to the supplier
func (s *PurchaseOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := shared.RequireActor(ctx); err != nil {
		return err
	}
	var code string
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		order, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !order.CanDelete() {
			return shared.ErrInvalidTransition.WithMessage("Cannot delete purchase order in %s status", order.Status)
		}
		if order.AppliedReceivables.IsPositive() {
			if _, err := ledger.NewReceivablesLedger(repos.Suppliers()).Release(ctx, order.SupplierID, order.AppliedReceivables); err != nil {
				return err
			}
		}
		code = order.Code
		return repos.PurchaseOrders().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	logger.L(ctx).Info("purchase order deleted", zap.String("code", code), zap.String("order_id", id.String()))
	return nil
}

// Finish marks the order as received and takes its lines into stock at the
// purchase price
func (s *PurchaseOrderService) Finish(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	if _, err := shared.RequireActor(ctx); err != nil {
		return nil, err
	}
	var order *trade.PurchaseOrder
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Finish(s.now()); err != nil {
			return err
		}
		stock := ledger.NewStockLedger(repos.Products())
		if _, err := stock.Lock(ctx, order.ProductIDs()); err != nil {
			return err
		}
		for _, d := range order.Details {
			if _, err := stock.Receive(ctx, d.ProductID, d.Quantity, d.PurchasePrice); err != nil {
				return err
			}
		}
		return repos.PurchaseOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("purchase order finished", zap.String("code", order.Code), zap.String("order_id", order.ID.String()))
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Cancel cancels an order. A completed order must not have active returns
// and must still be the latest event for its products; its receipt is then
// reversed out of stock and cost. Applied receivables go back to the
// supplier in both cases.
func (s *PurchaseOrderService) Cancel(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	if _, err := shared.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var order *trade.PurchaseOrder
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == trade.StatusCancelled {
			return shared.ErrInvalidTransition.WithMessage("Purchase order %s is already cancelled", order.Code)
		}

		if order.Status == trade.StatusCompleted {
			active, err := repos.PurchaseReturns().CountActiveByOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			if active > 0 {
				return shared.NewStateConflictError("HAS_ACTIVE_RETURNS",
					"Cannot cancel a purchase order with active purchase returns")
			}
			stock := ledger.NewStockLedger(repos.Products())
			if _, err := stock.Lock(ctx, order.ProductIDs()); err != nil {
				return err
			}
			guard := ledger.NewCausalityGuard(repos.Dependencies())
			if err := guard.Check(ctx, "purchase order "+order.Code, order.ProductIDs(), order.CreatedAt); err != nil {
				return err
			}
			for _, d := range order.Details {
				if _, err := stock.ReverseReceipt(ctx, d.ProductID, d.Quantity, d.PurchasePrice); err != nil {
					return err
				}
			}
		}

		if order.AppliedReceivables.IsPositive() {
			if _, err := ledger.NewReceivablesLedger(repos.Suppliers()).Release(ctx, order.SupplierID, order.AppliedReceivables); err != nil {
				return err
			}
		}
		if err := order.Cancel(s.now()); err != nil {
			return err
		}
		return repos.PurchaseOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("purchase order cancelled", zap.String("code", order.Code), zap.String("order_id", order.ID.String()))
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Pay appends a payment to the order's history
func (s *PurchaseOrderService) Pay(ctx context.Context, id uuid.UUID, req PayRequest) (*PurchaseOrderResponse, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	var order *trade.PurchaseOrder
	err = s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := order.Pay(req.Amount, req.Method, actor.UserID, s.now()); err != nil {
			return err
		}
		return repos.PurchaseOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("purchase order paid",
		zap.String("code", order.Code),
		zap.String("amount", req.Amount.String()),
		zap.String("payment_status", string(order.PaymentStatus)),
	)
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}
