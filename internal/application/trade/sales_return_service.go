package trade

import (
	"context"

	"github.com/erp/tradeledger/internal/application/ledger"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SalesReturnService handles goods taken back from customers
type SalesReturnService struct {
	clockHolder
	returnRepo trade.SalesReturnRepository
	txScope    ledger.TransactionScope
}

// NewSalesReturnService creates a new SalesReturnService
func NewSalesReturnService(returnRepo trade.SalesReturnRepository, txScope ledger.TransactionScope) *SalesReturnService {
	return &SalesReturnService{
		returnRepo: returnRepo,
		txScope:    txScope,
	}
}

// Create records a completed return against a sales order. Every line is
// validated against the order and current stock before anything is written;
// returned products go back into stock without touching their cost.
func (s *SalesReturnService) Create(ctx context.Context, req CreateSalesReturnRequest) (*SalesReturnResponse, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	var ret *trade.SalesReturn
	err = s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		order, err := repos.SalesOrders().FindByIDForUpdate(ctx, req.SalesOrderID)
		if err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(req.ProductDetails))
		for _, l := range req.ProductDetails {
			if sopd := order.GetProductDetail(l.DetailID); sopd != nil {
				productIDs = append(productIDs, sopd.ProductID)
			}
		}
		stock := ledger.NewStockLedger(repos.Products())
		locked, err := stock.Lock(ctx, productIDs)
		if err != nil {
			return err
		}
		lookup := func(productID uuid.UUID) (decimal.Decimal, bool) {
			p, ok := locked[productID]
			if !ok {
				return decimal.Zero, false
			}
			return p.Stock, true
		}

		code, err := repos.Codes().Next(ctx, shared.PrefixSalesReturn)
		if err != nil {
			return err
		}
		ret, err = trade.NewSalesReturn(code, order,
			toSalesReturnLines(req.ProductDetails), toSalesReturnLines(req.ServiceDetails),
			lookup, req.Remarks, s.now())
		if err != nil {
			return err
		}
		ret.CreatedBy = actor.UserID

		for _, d := range ret.ProductDetails {
			sopd := order.GetProductDetail(d.SalesOrderProductDetailID)
			if err := sopd.AddReturned(d.ReturnQuantity); err != nil {
				return err
			}
			if _, err := stock.Restock(ctx, sopd.ProductID, d.ReturnQuantity); err != nil {
				return err
			}
		}
		for _, d := range ret.ServiceDetails {
			if err := order.GetServiceDetail(d.SalesOrderServiceDetailID).AddReturned(d.ReturnQuantity); err != nil {
				return err
			}
		}
		if err := repos.SalesOrders().Save(ctx, order); err != nil {
			return err
		}
		return repos.SalesReturns().Create(ctx, ret)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("sales return created",
		zap.String("code", ret.Code),
		zap.String("order_id", ret.SalesOrderID.String()),
		zap.String("grand_total", ret.GrandTotal.String()),
	)
	response := ToSalesReturnResponse(ret)
	return &response, nil
}

// GetByID retrieves a sales return with its lines
func (s *SalesReturnService) GetByID(ctx context.Context, id uuid.UUID) (*SalesReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSalesReturnResponse(ret)
	return &response, nil
}

// List retrieves sales returns with filtering and pagination
func (s *SalesReturnService) List(ctx context.Context, filter SalesReturnListFilter) ([]SalesReturnResponse, int64, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, 0, err
	}
	rets, total, err := s.returnRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSalesReturnListResponses(rets), total, nil
}

// Cancel reverses a completed return as long as no later transaction
// references its products: returned quantities are taken back off the order
// lines and the restocked goods leave stock again.
func (s *SalesReturnService) Cancel(ctx context.Context, id uuid.UUID) (*SalesReturnResponse, error) {
	if _, err := shared.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var ret *trade.SalesReturn
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		ret, err = repos.SalesReturns().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ret.Status != trade.StatusCompleted {
			return shared.ErrInvalidTransition.WithMessage("Cannot cancel sales return in %s status", ret.Status)
		}
		order, err := repos.SalesOrders().FindByIDForUpdate(ctx, ret.SalesOrderID)
		if err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(ret.ProductDetails))
		for _, d := range ret.ProductDetails {
			sopd := order.GetProductDetail(d.SalesOrderProductDetailID)
			if sopd == nil {
				return shared.ErrNotFound.WithMessage("Sales order product detail %s not found", d.SalesOrderProductDetailID)
			}
			productIDs = append(productIDs, sopd.ProductID)
		}
		stock := ledger.NewStockLedger(repos.Products())
		if _, err := stock.Lock(ctx, productIDs); err != nil {
			return err
		}
		guard := ledger.NewCausalityGuard(repos.Dependencies())
		if err := guard.Check(ctx, "sales return "+ret.Code, productIDs, ret.CreatedAt); err != nil {
			return err
		}

		for _, d := range ret.ProductDetails {
			sopd := order.GetProductDetail(d.SalesOrderProductDetailID)
			if err := sopd.AddReturned(d.ReturnQuantity.Neg()); err != nil {
				return err
			}
			if _, err := stock.Issue(ctx, sopd.ProductID, d.ReturnQuantity); err != nil {
				return err
			}
		}
		for _, d := range ret.ServiceDetails {
			sosd := order.GetServiceDetail(d.SalesOrderServiceDetailID)
			if sosd == nil {
				return shared.ErrNotFound.WithMessage("Sales order service detail %s not found", d.SalesOrderServiceDetailID)
			}
			if err := sosd.AddReturned(d.ReturnQuantity.Neg()); err != nil {
				return err
			}
		}

		if err := ret.Cancel(s.now()); err != nil {
			return err
		}
		if err := repos.SalesOrders().Save(ctx, order); err != nil {
			return err
		}
		return repos.SalesReturns().Save(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("sales return cancelled", zap.String("code", ret.Code), zap.String("order_id", ret.SalesOrderID.String()))
	response := ToSalesReturnResponse(ret)
	return &response, nil
}
