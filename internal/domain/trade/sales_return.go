package trade

import (
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesReturnProductDetail is a returned quantity of one sales order product line
type SalesReturnProductDetail struct {
	ID                        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SalesReturnID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	SalesOrderProductDetailID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReturnPrice               decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnQuantity            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason                    string          `gorm:"type:varchar(500)"`
	CreatedAt                 time.Time
}

// TableName returns the table name for GORM
func (SalesReturnProductDetail) TableName() string {
	return "sales_return_product_details"
}

// SalesReturnServiceDetail is a returned quantity of one sales order service line
type SalesReturnServiceDetail struct {
	ID                        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SalesReturnID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	SalesOrderServiceDetailID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReturnPrice               decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnQuantity            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason                    string          `gorm:"type:varchar(500)"`
	CreatedAt                 time.Time
}

// TableName returns the table name for GORM
func (SalesReturnServiceDetail) TableName() string {
	return "sales_return_service_details"
}

// SalesReturnLineInput is a submitted return line. DetailID points at a
// sales order product or service line; a zero ReturnPrice defaults to the
// line's selling price.
type SalesReturnLineInput struct {
	DetailID       uuid.UUID
	ReturnPrice    decimal.Decimal
	ReturnQuantity decimal.Decimal
	Reason         string
}

// SalesReturn takes goods and services of a sales order back from the customer.
// It is completed on creation.
type SalesReturn struct {
	shared.BaseEntity
	Code           string                     `gorm:"type:varchar(32);not null;uniqueIndex"`
	SalesOrderID   uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Status         Status                     `gorm:"type:varchar(20);not null;index"`
	GrandTotal     decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	Remarks        string                     `gorm:"type:text"`
	CreatedBy      uuid.UUID                  `gorm:"type:uuid"`
	CancelledAt    *time.Time
	ProductDetails []SalesReturnProductDetail `gorm:"foreignKey:SalesReturnID"`
	ServiceDetails []SalesReturnServiceDetail `gorm:"foreignKey:SalesReturnID"`
}

// TableName returns the table name for GORM
func (SalesReturn) TableName() string {
	return "sales_returns"
}

// StockLookup reports the current stock of a product
type StockLookup func(productID uuid.UUID) (decimal.Decimal, bool)

// NewSalesReturn builds a completed return against a sales order. Every
// product line must satisfy
//
//	0 < returnQuantity <= min(quantity - returnedQuantity, currentStock)
//
// and every service line 0 < returnQuantity <= quantity - returnedQuantity.
// The order's lines are not touched; the caller applies the returned
// quantities once the return is accepted.
func NewSalesReturn(code string, order *SalesOrder, products, services []SalesReturnLineInput, stock StockLookup, remarks string, now time.Time) (*SalesReturn, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Return code cannot be empty")
	}
	if order == nil {
		return nil, shared.NewValidationError("INVALID_ORDER", "Sales order cannot be nil")
	}
	if !order.CanAcceptReturn() {
		return nil, shared.ErrInvalidTransition.WithMessage("Cannot return goods of a %s sales order", order.ProgressStatus)
	}
	if len(products) == 0 && len(services) == 0 {
		return nil, shared.ErrEmptyDetails
	}

	sr := &SalesReturn{
		BaseEntity:   shared.NewBaseEntity(now),
		Code:         code,
		SalesOrderID: order.ID,
		Status:       StatusCompleted,
		Remarks:      remarks,
	}
	total := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(products)+len(services))

	for _, line := range products {
		if seen[line.DetailID] {
			return nil, shared.ErrDuplicateProduct.WithMessage("Sales order detail %s appears more than once", line.DetailID)
		}
		seen[line.DetailID] = true
		sopd := order.GetProductDetail(line.DetailID)
		if sopd == nil {
			return nil, shared.ErrNotFound.WithMessage("Sales order product detail %s not found on order %s", line.DetailID, order.Code)
		}
		current, ok := stock(sopd.ProductID)
		if !ok {
			return nil, shared.ErrNotFound.WithMessage("Product %s not found", sopd.ProductID)
		}
		limit := decimal.Min(sopd.ReturnableQuantity(), current)
		if err := checkReturnQuantity(line.ReturnQuantity, limit); err != nil {
			return nil, err
		}
		price, err := returnPrice(line.ReturnPrice, sopd.SellingPrice)
		if err != nil {
			return nil, err
		}
		lineTotal := price.Mul(line.ReturnQuantity)
		sr.ProductDetails = append(sr.ProductDetails, SalesReturnProductDetail{
			ID:                        uuid.New(),
			SalesReturnID:             sr.ID,
			SalesOrderProductDetailID: sopd.ID,
			ReturnPrice:               price,
			ReturnQuantity:            line.ReturnQuantity,
			TotalPrice:                lineTotal,
			Reason:                    line.Reason,
			CreatedAt:                 now,
		})
		total = total.Add(lineTotal)
	}

	for _, line := range services {
		if seen[line.DetailID] {
			return nil, shared.ErrDuplicateProduct.WithMessage("Sales order detail %s appears more than once", line.DetailID)
		}
		seen[line.DetailID] = true
		sosd := order.GetServiceDetail(line.DetailID)
		if sosd == nil {
			return nil, shared.ErrNotFound.WithMessage("Sales order service detail %s not found on order %s", line.DetailID, order.Code)
		}
		if err := checkReturnQuantity(line.ReturnQuantity, sosd.ReturnableQuantity()); err != nil {
			return nil, err
		}
		price, err := returnPrice(line.ReturnPrice, sosd.SellingPrice)
		if err != nil {
			return nil, err
		}
		lineTotal := price.Mul(line.ReturnQuantity)
		sr.ServiceDetails = append(sr.ServiceDetails, SalesReturnServiceDetail{
			ID:                        uuid.New(),
			SalesReturnID:             sr.ID,
			SalesOrderServiceDetailID: sosd.ID,
			ReturnPrice:               price,
			ReturnQuantity:            line.ReturnQuantity,
			TotalPrice:                lineTotal,
			Reason:                    line.Reason,
			CreatedAt:                 now,
		})
		total = total.Add(lineTotal)
	}

	sr.GrandTotal = total
	return sr, nil
}

// Cancel moves the return to Cancelled; ledger reversal is the caller's job
func (r *SalesReturn) Cancel(now time.Time) error {
	if err := salesReturnTransitions.Check("sales return", r.Status, StatusCancelled); err != nil {
		return err
	}
	r.Status = StatusCancelled
	r.CancelledAt = &now
	r.Touch(now)
	return nil
}

func checkReturnQuantity(quantity, limit decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	if quantity.GreaterThan(limit) {
		return shared.ErrOverReturn.WithMessage(
			"Return quantity %s exceeds the returnable limit of %s", quantity.String(), limit.String())
	}
	return nil
}

func returnPrice(submitted, fallback decimal.Decimal) (decimal.Decimal, error) {
	if submitted.IsNegative() {
		return decimal.Zero, shared.NewValidationError("INVALID_PRICE", "Return price cannot be negative")
	}
	if submitted.IsZero() {
		return fallback, nil
	}
	return submitted, nil
}
