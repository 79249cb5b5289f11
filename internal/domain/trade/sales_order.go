package trade

import (
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderProductDetail is a product line of a sales order. CostPrice and
// OriSellingPrice are snapshots of the product at order time.
type SalesOrderProductDetail struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SalesOrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OriSellingPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SellingPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Discount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (SalesOrderProductDetail) TableName() string {
	return "sales_order_product_details"
}

// ReturnableQuantity is what the customer may still return
func (d *SalesOrderProductDetail) ReturnableQuantity() decimal.Decimal {
	return d.Quantity.Sub(d.ReturnedQuantity)
}

// AddReturned records returned units; a negative quantity undoes a return
func (d *SalesOrderProductDetail) AddReturned(quantity decimal.Decimal) error {
	next, err := addReturned(d.Quantity, d.ReturnedQuantity, quantity)
	if err != nil {
		return err
	}
	d.ReturnedQuantity = next
	return nil
}

// SalesOrderServiceDetail is a service line; it has no stock effect
type SalesOrderServiceDetail struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SalesOrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name             string          `gorm:"type:varchar(200);not null"`
	SellingPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt        time.Time
}

// TableName returns the table name for GORM
func (SalesOrderServiceDetail) TableName() string {
	return "sales_order_service_details"
}

// ReturnableQuantity is what the customer may still return
func (d *SalesOrderServiceDetail) ReturnableQuantity() decimal.Decimal {
	return d.Quantity.Sub(d.ReturnedQuantity)
}

// AddReturned records returned units; a negative quantity undoes a return
func (d *SalesOrderServiceDetail) AddReturned(quantity decimal.Decimal) error {
	next, err := addReturned(d.Quantity, d.ReturnedQuantity, quantity)
	if err != nil {
		return err
	}
	d.ReturnedQuantity = next
	return nil
}

// SalesOrderPayment is a row of payment history
type SalesOrderPayment struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method       string          `gorm:"type:varchar(50);not null"`
	PaidBy       uuid.UUID       `gorm:"type:uuid"`
	PaidAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderPayment) TableName() string {
	return "sales_order_payments"
}

// SalesProductLine is a submitted product line with the product it sells
type SalesProductLine struct {
	Product      *catalog.Product
	SellingPrice decimal.Decimal
	Quantity     decimal.Decimal
}

// SalesServiceLine is a submitted service line
type SalesServiceLine struct {
	Name         string
	SellingPrice decimal.Decimal
	Quantity     decimal.Decimal
}

// SalesOrderInput carries the header of a new sales order
type SalesOrderInput struct {
	Code          string
	CustomerID    uuid.UUID
	EntryDate     time.Time
	PaymentType   PaymentType
	PaymentMethod string
	PaidAmount    decimal.Decimal
	Remarks       string
	CreatedBy     uuid.UUID
}

// SalesOrder is an order placed by a customer
type SalesOrder struct {
	shared.BaseEntity
	Code           string                    `gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerID     uuid.UUID                 `gorm:"type:uuid;not null;index"`
	EntryDate      time.Time                 `gorm:"not null"`
	PaymentType    PaymentType               `gorm:"type:varchar(20);not null"`
	PaymentMethod  string                    `gorm:"type:varchar(50);not null"`
	ProgressStatus Status                    `gorm:"type:varchar(20);not null;index"`
	PaymentStatus  PaymentStatus             `gorm:"type:varchar(20);not null"`
	SubTotal       decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Discount       decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal     decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Remarks        string                    `gorm:"type:text"`
	CreatedBy      uuid.UUID                 `gorm:"type:uuid"`
	CompletedAt    *time.Time
	CancelledAt    *time.Time
	ProductDetails []SalesOrderProductDetail `gorm:"foreignKey:SalesOrderID"`
	ServiceDetails []SalesOrderServiceDetail `gorm:"foreignKey:SalesOrderID"`
	Payments       []SalesOrderPayment       `gorm:"foreignKey:SalesOrderID"`
}

// TableName returns the table name for GORM
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// PriceLine splits a product line into its subtotal and discount contributions.
// Discount is always measured against the original price; a markup is
// charged in full and never counts as a negative discount.
func PriceLine(oriSellingPrice, sellingPrice, quantity decimal.Decimal) (subTotal, discount decimal.Decimal) {
	if sellingPrice.GreaterThan(oriSellingPrice) {
		return sellingPrice.Mul(quantity), decimal.Zero
	}
	return oriSellingPrice.Mul(quantity), oriSellingPrice.Sub(sellingPrice).Mul(quantity)
}

// NewSalesOrder creates an in-progress sales order and records the initial payment
func NewSalesOrder(in SalesOrderInput, products []SalesProductLine, services []SalesServiceLine, now time.Time) (*SalesOrder, error) {
	if strings.TrimSpace(in.Code) == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Order code cannot be empty")
	}
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !in.PaymentType.IsValid() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_TYPE", "Unknown payment type")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, shared.NewValidationError("INVALID_METHOD", "Payment method cannot be empty")
	}
	if len(products) == 0 && len(services) == 0 {
		return nil, shared.ErrEmptyDetails
	}
	entryDate := in.EntryDate
	if entryDate.IsZero() {
		entryDate = now
	}

	so := &SalesOrder{
		BaseEntity:     shared.NewBaseEntity(now),
		Code:           in.Code,
		CustomerID:     in.CustomerID,
		EntryDate:      entryDate,
		PaymentType:    in.PaymentType,
		PaymentMethod:  in.PaymentMethod,
		ProgressStatus: StatusInProgress,
		PaidAmount:     decimal.Zero,
		Remarks:        in.Remarks,
		CreatedBy:      in.CreatedBy,
	}

	seen := make(map[uuid.UUID]bool, len(products))
	for _, line := range products {
		if line.Product == nil {
			return nil, shared.NewValidationError("INVALID_PRODUCT", "Product cannot be nil")
		}
		if seen[line.Product.ID] {
			return nil, shared.ErrDuplicateProduct.WithMessage("Product %s appears more than once", line.Product.Code)
		}
		seen[line.Product.ID] = true
		if !line.Quantity.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if line.SellingPrice.IsNegative() {
			return nil, shared.NewValidationError("INVALID_PRICE", "Selling price cannot be negative")
		}
		_, discount := PriceLine(line.Product.SellingPrice, line.SellingPrice, line.Quantity)
		so.ProductDetails = append(so.ProductDetails, SalesOrderProductDetail{
			ID:               uuid.New(),
			SalesOrderID:     so.ID,
			ProductID:        line.Product.ID,
			CostPrice:        line.Product.CostPrice,
			OriSellingPrice:  line.Product.SellingPrice,
			SellingPrice:     line.SellingPrice,
			Quantity:         line.Quantity,
			ReturnedQuantity: decimal.Zero,
			Discount:         discount,
			TotalPrice:       line.SellingPrice.Mul(line.Quantity),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	for _, line := range services {
		if strings.TrimSpace(line.Name) == "" {
			return nil, shared.NewValidationError("INVALID_SERVICE", "Service name cannot be empty")
		}
		if !line.Quantity.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if line.SellingPrice.IsNegative() {
			return nil, shared.NewValidationError("INVALID_PRICE", "Selling price cannot be negative")
		}
		so.ServiceDetails = append(so.ServiceDetails, SalesOrderServiceDetail{
			ID:               uuid.New(),
			SalesOrderID:     so.ID,
			Name:             line.Name,
			SellingPrice:     line.SellingPrice,
			Quantity:         line.Quantity,
			ReturnedQuantity: decimal.Zero,
			TotalPrice:       line.SellingPrice.Mul(line.Quantity),
			CreatedAt:        now,
		})
	}

	so.recalculateTotals()

	if err := validateInitialPayment(in.PaidAmount, so.GrandTotal); err != nil {
		return nil, err
	}
	switch so.PaymentType {
	case PaymentTypeFull:
		if !in.PaidAmount.Equal(so.GrandTotal) {
			return nil, shared.NewValidationError("INVALID_AMOUNT", "A full payment must equal the grand total")
		}
	case PaymentTypeDownPayment:
		if !in.PaidAmount.LessThan(so.GrandTotal) {
			return nil, shared.NewValidationError("INVALID_AMOUNT", "A down payment must be less than the grand total")
		}
	}

	so.PaidAmount = in.PaidAmount
	so.Payments = []SalesOrderPayment{{
		ID:           uuid.New(),
		SalesOrderID: so.ID,
		Amount:       in.PaidAmount,
		Method:       in.PaymentMethod,
		PaidBy:       in.CreatedBy,
		PaidAt:       now,
	}}
	so.PaymentStatus = DerivePaymentStatus(so.PaidAmount, so.GrandTotal)
	return so, nil
}

// UpdateHeader edits the fields that carry no ledger effect
func (o *SalesOrder) UpdateHeader(entryDate time.Time, paymentMethod, remarks string, now time.Time) error {
	if !o.CanModify() {
		return shared.ErrInvalidTransition.WithMessage("Cannot modify sales order in %s status", o.ProgressStatus)
	}
	if !entryDate.IsZero() {
		o.EntryDate = entryDate
	}
	if strings.TrimSpace(paymentMethod) != "" {
		o.PaymentMethod = paymentMethod
	}
	o.Remarks = remarks
	o.Touch(now)
	return nil
}

// Pay appends a payment and re-derives the payment status
func (o *SalesOrder) Pay(amount decimal.Decimal, method string, paidBy uuid.UUID, now time.Time) (*SalesOrderPayment, error) {
	if o.ProgressStatus == StatusCancelled {
		return nil, shared.ErrInvalidTransition.WithMessage("Cannot pay a cancelled sales order")
	}
	paid, err := addPayment(o.PaidAmount, o.GrandTotal, amount, method)
	if err != nil {
		return nil, err
	}
	payment := SalesOrderPayment{
		ID:           uuid.New(),
		SalesOrderID: o.ID,
		Amount:       amount,
		Method:       method,
		PaidBy:       paidBy,
		PaidAt:       now,
	}
	o.Payments = append(o.Payments, payment)
	o.PaidAmount = paid
	o.PaymentStatus = DerivePaymentStatus(o.PaidAmount, o.GrandTotal)
	o.Touch(now)
	return &payment, nil
}

// Finish marks the order as fulfilled
func (o *SalesOrder) Finish(now time.Time) error {
	if err := salesOrderTransitions.Check("sales order", o.ProgressStatus, StatusCompleted); err != nil {
		return err
	}
	o.ProgressStatus = StatusCompleted
	o.CompletedAt = &now
	o.Touch(now)
	return nil
}

// Cancel moves the order to Cancelled; ledger reversal is the caller's job
func (o *SalesOrder) Cancel(now time.Time) error {
	if err := salesOrderTransitions.Check("sales order", o.ProgressStatus, StatusCancelled); err != nil {
		return err
	}
	o.ProgressStatus = StatusCancelled
	o.CancelledAt = &now
	o.Touch(now)
	return nil
}

// CanModify returns true while the order may still be edited
func (o *SalesOrder) CanModify() bool {
	return o.ProgressStatus == StatusInProgress
}

// CanAcceptReturn returns true if a sales return may reference this order
func (o *SalesOrder) CanAcceptReturn() bool {
	return o.ProgressStatus == StatusInProgress || o.ProgressStatus == StatusCompleted
}

// HasReturns reports whether any line has returned units
func (o *SalesOrder) HasReturns() bool {
	for _, d := range o.ProductDetails {
		if d.ReturnedQuantity.IsPositive() {
			return true
		}
	}
	for _, d := range o.ServiceDetails {
		if d.ReturnedQuantity.IsPositive() {
			return true
		}
	}
	return false
}

// GetProductDetail returns the product line with the given ID, or nil
func (o *SalesOrder) GetProductDetail(detailID uuid.UUID) *SalesOrderProductDetail {
	for i := range o.ProductDetails {
		if o.ProductDetails[i].ID == detailID {
			return &o.ProductDetails[i]
		}
	}
	return nil
}

// GetServiceDetail returns the service line with the given ID, or nil
func (o *SalesOrder) GetServiceDetail(detailID uuid.UUID) *SalesOrderServiceDetail {
	for i := range o.ServiceDetails {
		if o.ServiceDetails[i].ID == detailID {
			return &o.ServiceDetails[i]
		}
	}
	return nil
}

// ProductIDs returns the products sold on the order
func (o *SalesOrder) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.ProductDetails))
	for _, d := range o.ProductDetails {
		ids = append(ids, d.ProductID)
	}
	return ids
}

func (o *SalesOrder) recalculateTotals() {
	subTotal := decimal.Zero
	discount := decimal.Zero
	for _, d := range o.ProductDetails {
		lineSub, lineDiscount := PriceLine(d.OriSellingPrice, d.SellingPrice, d.Quantity)
		subTotal = subTotal.Add(lineSub)
		discount = discount.Add(lineDiscount)
	}
	for _, d := range o.ServiceDetails {
		subTotal = subTotal.Add(d.TotalPrice)
	}
	o.SubTotal = subTotal
	o.Discount = discount
	o.GrandTotal = subTotal.Sub(discount)
}

func addReturned(quantity, returned, delta decimal.Decimal) (decimal.Decimal, error) {
	next := returned.Add(delta)
	if next.IsNegative() {
		return returned, shared.NewInvariantViolationError("NEGATIVE_RETURNED", "Returned quantity cannot become negative")
	}
	if next.GreaterThan(quantity) {
		return returned, shared.ErrOverReturn.WithMessage(
			"Cannot return %s: only %s of %s remain returnable", delta.String(), quantity.Sub(returned).String(), quantity.String())
	}
	return next, nil
}
