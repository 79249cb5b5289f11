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

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	clockHolder
	orderRepo trade.SalesOrderRepository
	txScope   ledger.TransactionScope
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(orderRepo trade.SalesOrderRepository, txScope ledger.TransactionScope) *SalesOrderService {
	return &SalesOrderService{
		orderRepo: orderRepo,
		txScope:   txScope,
	}
}

// Create creates a sales order, snapshots product prices and issues the sold
// stock in the same transaction
func (s *SalesOrderService) Create(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	var order *trade.SalesOrder
	err = s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		if _, err := repos.Customers().FindByID(ctx, req.CustomerID); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(req.ProductDetails))
		for i, d := range req.ProductDetails {
			ids[i] = d.ProductID
		}
		stock := ledger.NewStockLedger(repos.Products())
		locked, err := stock.Lock(ctx, ids)
		if err != nil {
			return err
		}
		products := make([]trade.SalesProductLine, len(req.ProductDetails))
		for i, d := range req.ProductDetails {
			products[i] = trade.SalesProductLine{
				Product:      locked[d.ProductID],
				SellingPrice: d.SellingPrice,
				Quantity:     d.Quantity,
			}
		}
		services := make([]trade.SalesServiceLine, len(req.ServiceDetails))
		for i, d := range req.ServiceDetails {
			services[i] = trade.SalesServiceLine{Name: d.Name, SellingPrice: d.SellingPrice, Quantity: d.Quantity}
		}

		code, err := repos.Codes().Next(ctx, shared.PrefixSalesOrder)
		if err != nil {
			return err
		}
		order, err = trade.NewSalesOrder(trade.SalesOrderInput{
			Code:          code,
			CustomerID:    req.CustomerID,
			EntryDate:     req.EntryDate,
			PaymentType:   trade.PaymentType(req.PaymentType),
			PaymentMethod: req.PaymentMethod,
			PaidAmount:    req.PaidAmount,
			Remarks:       req.Remarks,
			CreatedBy:     actor.UserID,
		}, products, services, s.now())
		if err != nil {
			return err
		}

		for _, d := range order.ProductDetails {
			if _, err := stock.Issue(ctx, d.ProductID, d.Quantity); err != nil {
				return err
			}
		}
		return repos.SalesOrders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("sales order created",
		zap.String("code", order.Code),
		zap.String("order_id", order.ID.String()),
		zap.String("grand_total", order.GrandTotal.String()),
	)
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a sales order with its lines and payment history
func (s *SalesOrderService) GetByID(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// List retrieves sales orders with filtering and pagination
func (s *SalesOrderService) List(ctx context.Context, filter SalesOrderListFilter) ([]SalesOrderResponse, int64, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSalesOrderListResponses(orders), total, nil
}

// Update edits the header fields of an in-progress order
func (s *SalesOrderService) Update(ctx context.Context, id uuid.UUID, req UpdateSalesOrderRequest) (*SalesOrderResponse, error) {
	if _, err := shared.RequireActor(ctx); err != nil {
		return nil, err
	}
	var order *trade.SalesOrder
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		order, err = repos.SalesOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := order.UpdateHeader(req.EntryDate, req.PaymentMethod, req.Remarks, s.now()); err != nil {
			return err
		}
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("sales order updated", zap.String("code", order.Code), zap.String("order_id", order.ID.String()))
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// Delete removes an in-progress order without returns and puts its issued
// stock back
func (s *SalesOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := shared.RequireActor(ctx); err != nil {
		return err
	}
	var code string
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		order, err := repos.SalesOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !order.CanModify() {
			return shared.ErrInvalidTransition.WithMessage("Cannot delete sales order in %s status", order.ProgressStatus)
		}
		returns, err := repos.SalesReturns().CountActiveByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if returns > 0 || order.HasReturns() {
			return shared.NewStateConflictError("HAS_RETURNS", "Cannot delete a sales order that has returns")
		}
		stock := ledger.NewStockLedger(repos.Products())
		if _, err := stock.Lock(ctx, order.ProductIDs()); err != nil {
			return err
		}
		guard := ledger.NewCausalityGuard(repos.Dependencies())
		if err := guard.Check(ctx, "sales order "+order.Code, order.ProductIDs(), order.CreatedAt); err != nil {
			return err
		}
		for _, d := range order.ProductDetails {
			if _, err := stock.Restock(ctx, d.ProductID, d.Quantity); err != nil {
				return err
			}
		}
		code = order.Code
		return repos.SalesOrders().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	logger.L(ctx).Info("sales order deleted", zap.String("code", code), zap.String("order_id", id.String()))
	return nil
}

// Finish marks the order as completed
func (s *SalesOrderService) Finish(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	if _, err := shared.RequireActor(ctx); err != nil {
		return nil, err
	}
	var order *trade.SalesOrder
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		order, err = repos.SalesOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Finish(s.now()); err != nil {
			return err
		}
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("sales order finished", zap.String("code", order.Code), zap.String("order_id", order.ID.String()))
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// Cancel cancels an order whose products have not moved since, restocking
// whatever the customer did not already return
func (s *SalesOrderService) Cancel(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	if _, err := shared.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var order *trade.SalesOrder
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		order, err = repos.SalesOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.ProgressStatus == trade.StatusCancelled {
			return shared.ErrInvalidTransition.WithMessage("Sales order %s is already cancelled", order.Code)
		}
		stock := ledger.NewStockLedger(repos.Products())
		if _, err := stock.Lock(ctx, order.ProductIDs()); err != nil {
			return err
		}
		guard := ledger.NewCausalityGuard(repos.Dependencies())
		if err := guard.Check(ctx, "sales order "+order.Code, order.ProductIDs(), order.CreatedAt); err != nil {
			return err
		}
		for _, d := range order.ProductDetails {
			remaining := d.ReturnableQuantity()
			if !remaining.IsPositive() {
				continue
			}
			if _, err := stock.Restock(ctx, d.ProductID, remaining); err != nil {
				return err
			}
		}
		if err := order.Cancel(s.now()); err != nil {
			return err
		}
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("sales order cancelled", zap.String("code", order.Code), zap.String("order_id", order.ID.String()))
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// Pay appends a payment to the order's history
func (s *SalesOrderService) Pay(ctx context.Context, id uuid.UUID, req PayRequest) (*SalesOrderResponse, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	var order *trade.SalesOrder
	err = s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		order, err = repos.SalesOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := order.Pay(req.Amount, req.Method, actor.UserID, s.now()); err != nil {
			return err
		}
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("sales order paid",
		zap.String("code", order.Code),
		zap.String("amount", req.Amount.String()),
		zap.String("payment_status", string(order.PaymentStatus)),
	)
	response := ToSalesOrderResponse(order)
	return &response, nil
}
