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

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
	txScope      ledger.TransactionScope
	clock        shared.Clock
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, txScope ledger.TransactionScope) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		txScope:      txScope,
		clock:        shared.SystemClock,
	}
}

// Create creates a new customer with a generated CUS code
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	if _, err := shared.RequireActor(ctx); err != nil {
		return nil, err
	}

	var customer *partner.Customer
	err := s.txScope.Execute(ctx, func(ctx context.Context, repos ledger.TransactionalRepositories) error {
		code, err := repos.Codes().Next(ctx, shared.PrefixCustomer)
		if err != nil {
			return err
		}
		customer, err = partner.NewCustomer(code, req.Name, s.clock())
		if err != nil {
			return err
		}
		customer.SetContact(req.Phone, req.Address)
		return repos.Customers().Create(ctx, customer)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("customer created", zap.String("code", customer.Code), zap.String("customer_id", customer.ID.String()))
	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves a list of customers with filtering and pagination
func (s *CustomerService) List(ctx context.Context, filter PartnerListFilter) ([]CustomerResponse, int64, error) {
	customers, total, err := s.customerRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerResponses(customers), total, nil
}
