package partner

import (
	"context"

	"github.com/erp/tradeledger/internal/application/ledger"
	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SupplierService handles supplier-related business operations
type SupplierService struct {
	supplierRepo partner.SupplierRepository
	txScope      ledger.TransactionScope
	clock        shared.Clock
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository, txScope ledger.TransactionScope) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		txScope:      txScope,
		clock:        shared.SystemClock,
	}
}

// Create creates a new supplier with a generated SUP code
func (s *SupplierService) Create(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	if _, err := shared.RequireActor(ctx); err != nil {
		return nil, err
	}

	var supplier *partner.Supplier
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		code, err := repos.Codes().Next(ctx, shared.PrefixSupplier)
		if err != nil {
			return err
		}
		supplier, err = partner.NewSupplier(code, req.Name, req.ReceivablesLimit, s.clock())
		if err != nil {
			return err
		}
		supplier.SetContact(req.Phone, req.Address)
		if req.OpeningReceivables.IsPositive() {
			if err := supplier.ReleaseReceivables(req.OpeningReceivables); err != nil {
				return err
			}
		}
		return repos.Suppliers().Create(ctx, supplier)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("supplier created", zap.String("code", supplier.Code), zap.String("supplier_id", supplier.ID.String()))
	response := ToSupplierResponse(supplier)
	return &response, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSupplierResponse(supplier)
	return &response, nil
}

// List retrieves a list of suppliers with filtering and pagination
func (s *SupplierService) List(ctx context.Context, filter PartnerListFilter) ([]SupplierResponse, int64, error) {
	suppliers, total, err := s.supplierRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	return ToSupplierResponses(suppliers), total, nil
}
