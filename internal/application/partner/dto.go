package partner

import (
	"time"

	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Shared
// =============================================================================

// PartnerListFilter represents filter options for supplier and customer lists
type PartnerListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f PartnerListFilter) toDomain() partner.PartnerFilter {
	return partner.PartnerFilter{
		Pagination: shared.Pagination{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
		},
		Search: f.Search,
	}
}

// =============================================================================
// Supplier DTOs
// =============================================================================

// CreateSupplierRequest represents a request to create a new supplier.
// OpeningReceivables seeds credit carried over from another system and must
// stay within ReceivablesLimit.
type CreateSupplierRequest struct {
	Name               string          `json:"name" binding:"required,min=1,max=200"`
	Phone              string          `json:"phone" binding:"max=50"`
	Address            string          `json:"address" binding:"max=500"`
	ReceivablesLimit   decimal.Decimal `json:"receivables_limit" binding:"decimal_gte0"`
	OpeningReceivables decimal.Decimal `json:"opening_receivables" binding:"decimal_gte0"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address"`
	Receivables      decimal.Decimal `json:"receivables"`
	ReceivablesLimit decimal.Decimal `json:"receivables_limit"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToSupplierResponse converts a domain Supplier to a response DTO
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:               s.ID,
		Code:             s.Code,
		Name:             s.Name,
		Phone:            s.Phone,
		Address:          s.Address,
		Receivables:      s.Receivables,
		ReceivablesLimit: s.ReceivablesLimit,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// ToSupplierResponses converts a slice of domain Suppliers to response DTOs
func ToSupplierResponses(suppliers []partner.Supplier) []SupplierResponse {
	responses := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		responses[i] = ToSupplierResponse(&suppliers[i])
	}
	return responses
}

// =============================================================================
// Customer DTOs
// =============================================================================

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer to a response DTO
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of domain Customers to response DTOs
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}
