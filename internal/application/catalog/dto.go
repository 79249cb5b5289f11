package catalog

import (
	"time"

	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product.
// An empty code is generated from the PRD sequence.
type CreateProductRequest struct {
	Code             string          `json:"code" binding:"omitempty,max=32"`
	Name             string          `json:"name" binding:"required,min=1,max=200"`
	Uom              string          `json:"uom" binding:"required,min=1,max=20"`
	PurchasePrice    decimal.Decimal `json:"purchase_price" binding:"decimal_gte0"`
	SellingPrice     decimal.Decimal `json:"selling_price" binding:"decimal_gte0"`
	RestockThreshold decimal.Decimal `json:"restock_threshold" binding:"decimal_gte0"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search   string `form:"search"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ProductListFilter) toDomain() catalog.ProductFilter {
	return catalog.ProductFilter{
		Pagination: shared.Pagination{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
		},
		Search:   f.Search,
		LowStock: f.LowStock,
	}
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Uom              string          `json:"uom"`
	Stock            decimal.Decimal `json:"stock"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	RestockThreshold decimal.Decimal `json:"restock_threshold"`
	NeedsRestock     bool            `json:"needs_restock"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain Product to a response DTO
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		Code:             p.Code,
		Name:             p.Name,
		Uom:              p.Uom,
		Stock:            p.Stock,
		CostPrice:        p.CostPrice,
		PurchasePrice:    p.PurchasePrice,
		SellingPrice:     p.SellingPrice,
		RestockThreshold: p.RestockThreshold,
		NeedsRestock:     p.NeedsRestock(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of domain Products to response DTOs
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}
