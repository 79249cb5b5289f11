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

// PurchaseReturnService handles returns of purchased goods to suppliers
type PurchaseReturnService struct {
	clockHolder
	returnRepo trade.PurchaseReturnRepository
	txScope    ledger.TransactionScope
}

// NewPurchaseReturnService creates a new PurchaseReturnService
func NewPurchaseReturnService(returnRepo trade.PurchaseReturnRepository, txScope ledger.TransactionScope) *PurchaseReturnService {
	return &PurchaseReturnService{
		returnRepo: returnRepo,
		txScope:    txScope,
	}
}

// Create records a return against a completed purchase order. The goods are
// backed out of stock at their purchase price. A refund also credits the
// supplier with the return total; a replacement waits for Finish.
func (s *PurchaseReturnService) Create(ctx context.Context, req CreatePurchaseReturnRequest) (*PurchaseReturnResponse, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]trade.PurchaseReturnDetailInput, len(req.Details))
	for i, d := range req.Details {
		lines[i] = trade.PurchaseReturnDetailInput{
			PurchaseOrderDetailID: d.PurchaseOrderDetailID,
			ReturnPrice:           d.ReturnPrice,
			ReturnQuantity:        d.ReturnQuantity,
			Reason:                d.Reason,
		}
	}

	var ret *trade.PurchaseReturn
	err = s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		order, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, req.PurchaseOrderID)
		if err != nil {
			return err
		}
		productIDs := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			if pod := order.GetDetail(l.PurchaseOrderDetailID); pod != nil {
				productIDs = append(productIDs, pod.ProductID)
			}
		}
		stock := ledger.NewStockLedger(repos.Products())
		if _, err := stock.Lock(ctx, productIDs); err != nil {
			return err
		}
		code, err := repos.Codes().Next(ctx, shared.PrefixPurchaseReturn)
		if err != nil {
			return err
		}
		ret, err = trade.NewPurchaseReturn(code, order, trade.ReturnType(req.ReturnType), lines, req.Remarks, s.now())
		if err != nil {
			return err
		}
		ret.CreatedBy = actor.UserID

		for _, d := range ret.Details {
			pod := order.GetDetail(d.PurchaseOrderDetailID)
			if _, err := stock.ReverseReceipt(ctx, pod.ProductID, d.ReturnQuantity, pod.PurchasePrice); err != nil {
				return err
			}
			if err := pod.AddReturned(d.ReturnQuantity); err != nil {
				return err
			}
		}
		if ret.IsRefund() && ret.GrandTotal.IsPositive() {
			if _, err := ledger.NewReceivablesLedger(repos.Suppliers()).Release(ctx, order.SupplierID, ret.GrandTotal); err != nil {
				return err
			}
		}
		if err := repos.PurchaseOrders().Save(ctx, order); err != nil {
			return err
		}
		return repos.PurchaseReturns().Create(ctx, ret)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("purchase return created",
		zap.String("code", ret.Code),
		zap.String("order_id", ret.PurchaseOrderID.String()),
		zap.String("return_type", string(ret.ReturnType)),
		zap.String("grand_total", ret.GrandTotal.String()),
	)
	response := ToPurchaseReturnResponse(ret)
	return &response, nil
}

// GetByID retrieves a purchase return with its lines
func (s *PurchaseReturnService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseReturnResponse(ret)
	return &response, nil
}

// List retrieves purchase returns with filtering and pagination
func (s *PurchaseReturnService) List(ctx context.Context, filter PurchaseReturnListFilter) ([]PurchaseReturnResponse, int64, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, 0, err
	}
	rets, total, err := s.returnRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPurchaseReturnListResponses(rets), total, nil
}

// Finish completes a replacement return: the replacement goods are received
// at the original purchase price
func (s *PurchaseReturnService) Finish(ctx context.Context, id uuid.UUID) (*PurchaseReturnResponse, error) {
	if _, err := shared.RequireActor(ctx); err != nil {
		return nil, err
	}
	var ret *trade.PurchaseReturn
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		ret, err = repos.PurchaseReturns().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := ret.Finish(s.now()); err != nil {
			return err
		}
		order, err := repos.PurchaseOrders().FindByID(ctx, ret.PurchaseOrderID)
		if err != nil {
			return err
		}
		productIDs := make([]uuid.UUID, 0, len(ret.Details))
		for _, d := range ret.Details {
			pod := order.GetDetail(d.PurchaseOrderDetailID)
			if pod == nil {
				return shared.ErrNotFound.WithMessage("Purchase order detail %s not found", d.PurchaseOrderDetailID)
			}
			productIDs = append(productIDs, pod.ProductID)
		}
		stock := ledger.NewStockLedger(repos.Products())
		if _, err := stock.Lock(ctx, productIDs); err != nil {
			return err
		}
		for _, d := range ret.Details {
			pod := order.GetDetail(d.PurchaseOrderDetailID)
			if _, err := stock.Receive(ctx, pod.ProductID, d.ReturnQuantity, pod.PurchasePrice); err != nil {
				return err
			}
		}
		return repos.PurchaseReturns().Save(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("purchase return finished", zap.String("code", ret.Code), zap.String("order_id", ret.PurchaseOrderID.String()))
	response := ToPurchaseReturnResponse(ret)
	return &response, nil
}

// Cancel reverses a return whose products have not moved since. A refund or
// an in-progress replacement puts the goods back at their purchase price, and
// a refund also takes the supplier's credit back. A completed replacement has
// already been made whole.
func (s *PurchaseReturnService) Cancel(ctx context.Context, id uuid.UUID) (*PurchaseReturnResponse, error) {
	if _, err := shared.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var ret *trade.PurchaseReturn
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		var err error
		ret, err = repos.PurchaseReturns().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ret.Status == trade.StatusCancelled {
			return shared.ErrInvalidTransition.WithMessage("Purchase return %s is already cancelled", ret.Code)
		}
		order, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, ret.PurchaseOrderID)
		if err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(ret.Details))
		for _, d := range ret.Details {
			pod := order.GetDetail(d.PurchaseOrderDetailID)
			if pod == nil {
				return shared.ErrNotFound.WithMessage("Purchase order detail %s not found", d.PurchaseOrderDetailID)
			}
			productIDs = append(productIDs, pod.ProductID)
		}
		stock := ledger.NewStockLedger(repos.Products())
		if _, err := stock.Lock(ctx, productIDs); err != nil {
			return err
		}
		guard := ledger.NewCausalityGuard(repos.Dependencies())
		if err := guard.Check(ctx, "purchase return "+ret.Code, productIDs, ret.CreatedAt); err != nil {
			return err
		}

		restore := ret.IsRefund() || ret.Status != trade.StatusCompleted
		for _, d := range ret.Details {
			pod := order.GetDetail(d.PurchaseOrderDetailID)
			if restore {
				if _, err := stock.Receive(ctx, pod.ProductID, d.ReturnQuantity, pod.PurchasePrice); err != nil {
					return err
				}
			}
			if err := pod.AddReturned(d.ReturnQuantity.Neg()); err != nil {
				return err
			}
		}
		if ret.IsRefund() && ret.GrandTotal.IsPositive() {
			if _, err := ledger.NewReceivablesLedger(repos.Suppliers()).Apply(ctx, order.SupplierID, ret.GrandTotal); err != nil {
				return err
			}
		}

		if err := ret.Cancel(s.now()); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Save(ctx, order); err != nil {
			return err
		}
		return repos.PurchaseReturns().Save(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("purchase return cancelled", zap.String("code", ret.Code), zap.String("order_id", ret.PurchaseOrderID.String()))
	response := ToPurchaseReturnResponse(ret)
	return &response, nil
}
