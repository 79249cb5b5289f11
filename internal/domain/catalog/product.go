package catalog

import (
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CostScale is the number of decimal places kept on weighted-average cost
const CostScale = 4

// Product is a stocked item. Stock and CostPrice are owned by the stock ledger
// and only move through the receipt/issue methods below.
type Product struct {
	shared.BaseEntity
	Code             string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Uom              string          `gorm:"type:varchar(20);not null"`
	Stock            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchasePrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SellingPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RestockThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zero stock
func NewProduct(code, name, uom string, purchasePrice, sellingPrice, restockThreshold decimal.Decimal, now time.Time) (*Product, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Product code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Product name cannot be empty")
	}
	if strings.TrimSpace(uom) == "" {
		return nil, shared.NewValidationError("INVALID_UOM", "Unit of measure cannot be empty")
	}
	if purchasePrice.IsNegative() || sellingPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Prices cannot be negative")
	}
	if restockThreshold.IsNegative() {
		return nil, shared.NewValidationError("INVALID_THRESHOLD", "Restock threshold cannot be negative")
	}
	return &Product{
		BaseEntity:       shared.NewBaseEntity(now),
		Code:             code,
		Name:             name,
		Uom:              uom,
		Stock:            decimal.Zero,
		CostPrice:        decimal.Zero,
		PurchasePrice:    purchasePrice,
		SellingPrice:     sellingPrice,
		RestockThreshold: restockThreshold,
	}, nil
}

// NeedsRestock reports whether stock has fallen to the restock threshold
func (p *Product) NeedsRestock() bool {
	return p.Stock.LessThanOrEqual(p.RestockThreshold)
}

// Receive adds purchased stock and folds its value into the weighted-average cost.
//
//	cost' = (stock*cost + qty*unitCost) / (stock + qty)
func (p *Product) Receive(quantity, unitCost decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewValidationError("INVALID_COST", "Unit cost cannot be negative")
	}
	numerator := p.Stock.Mul(p.CostPrice).Add(quantity.Mul(unitCost))
	p.Stock = p.Stock.Add(quantity)
	p.CostPrice = averageCost(numerator, p.Stock)
	return nil
}

// ReverseReceipt takes back stock that was received at unitCost and removes
// its value from the weighted-average cost.
//
//	cost' = (stock*cost - qty*unitCost) / (stock - qty)
func (p *Product) ReverseReceipt(quantity, unitCost decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	}
	newStock := p.Stock.Sub(quantity)
	if newStock.IsNegative() {
		return shared.ErrInsufficientStock.WithMessage(
			"Insufficient stock for product %s: have %s, need %s", p.Code, p.Stock.String(), quantity.String())
	}
	numerator := p.Stock.Mul(p.CostPrice).Sub(quantity.Mul(unitCost))
	if numerator.IsNegative() && !newStock.IsZero() {
		return shared.ErrNegativeCost.WithMessage(
			"Reversing %s units at %s would leave product %s with a negative valuation",
			quantity.String(), unitCost.String(), p.Code)
	}
	p.Stock = newStock
	p.CostPrice = averageCost(numerator, newStock)
	return nil
}

// Issue removes stock without changing cost (sales, goods sent back for replacement)
func (p *Product) Issue(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.Stock.LessThan(quantity) {
		return shared.ErrInsufficientStock.WithMessage(
			"Insufficient stock for product %s: have %s, need %s", p.Code, p.Stock.String(), quantity.String())
	}
	p.Stock = p.Stock.Sub(quantity)
	return nil
}

// Restock puts stock back without changing cost (sales returns, sale reversals)
func (p *Product) Restock(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.Stock = p.Stock.Add(quantity)
	return nil
}

func averageCost(numerator, stock decimal.Decimal) decimal.Decimal {
	if numerator.IsZero() || !stock.IsPositive() {
		return decimal.Zero
	}
	return numerator.Div(stock).Round(CostScale)
}
