package trade

import (
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderDetail is a line item in a purchase order
type PurchaseOrderDetail struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseOrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchasePrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (PurchaseOrderDetail) TableName() string {
	return "purchase_order_details"
}

// ReturnableQuantity is what may still be returned to the supplier
func (d *PurchaseOrderDetail) ReturnableQuantity() decimal.Decimal {
	return d.Quantity.Sub(d.ReturnedQuantity)
}

// AddReturned records returned units; a negative quantity undoes a return
func (d *PurchaseOrderDetail) AddReturned(quantity decimal.Decimal) error {
	next, err := addReturned(d.Quantity, d.ReturnedQuantity, quantity)
	if err != nil {
		return err
	}
	d.ReturnedQuantity = next
	return nil
}

// PurchaseOrderDetailInput is a submitted line; ID is set when editing an existing line
type PurchaseOrderDetailInput struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	PurchasePrice decimal.Decimal
	Quantity      decimal.Decimal
}

// PurchaseOrderPayment is a row of payment history
type PurchaseOrderPayment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method          string          `gorm:"type:varchar(50);not null"`
	PaidBy          uuid.UUID       `gorm:"type:uuid"`
	PaidAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderPayment) TableName() string {
	return "purchase_order_payments"
}

// PurchaseOrder is an order placed with a supplier
type PurchaseOrder struct {
	shared.BaseEntity
	Code               string                 `gorm:"type:varchar(32);not null;uniqueIndex"`
	SupplierID         uuid.UUID              `gorm:"type:uuid;not null;index"`
	Status             Status                 `gorm:"type:varchar(20);not null;index"`
	PaymentStatus      PaymentStatus          `gorm:"type:varchar(20);not null"`
	SubTotal           decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	AppliedReceivables decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal         decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidAmount         decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Remarks            string                 `gorm:"type:text"`
	CreatedBy          uuid.UUID              `gorm:"type:uuid"`
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	Details            []PurchaseOrderDetail  `gorm:"foreignKey:PurchaseOrderID"`
	Payments           []PurchaseOrderPayment `gorm:"foreignKey:PurchaseOrderID"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates an in-progress purchase order from its lines
func NewPurchaseOrder(code string, supplierID uuid.UUID, lines []PurchaseOrderDetailInput, remarks string, now time.Time) (*PurchaseOrder, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Order code cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	po := &PurchaseOrder{
		BaseEntity:         shared.NewBaseEntity(now),
		Code:               code,
		SupplierID:         supplierID,
		Status:             StatusInProgress,
		AppliedReceivables: decimal.Zero,
		PaidAmount:         decimal.Zero,
		Remarks:            remarks,
	}
	if err := po.ReplaceDetails(lines, now); err != nil {
		return nil, err
	}
	return po, nil
}

// ReplaceDetails reconciles the order's lines with the submitted set. Lines
// carrying an ID update the stored line in place, lines without one are new,
// stored lines not submitted are dropped. Totals are recomputed.
func (o *PurchaseOrder) ReplaceDetails(lines []PurchaseOrderDetailInput, now time.Time) error {
	if !o.CanModify() {
		return shared.ErrInvalidTransition.WithMessage("Cannot modify purchase order in %s status", o.Status)
	}
	if len(lines) == 0 {
		return shared.ErrEmptyDetails
	}

	existing := make(map[uuid.UUID]PurchaseOrderDetail, len(o.Details))
	for _, d := range o.Details {
		existing[d.ID] = d
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	details := make([]PurchaseOrderDetail, 0, len(lines))

	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if seen[line.ProductID] {
			return shared.ErrDuplicateProduct.WithMessage("Product %s appears more than once", line.ProductID)
		}
		seen[line.ProductID] = true
		if !line.Quantity.IsPositive() {
			return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if line.PurchasePrice.IsNegative() {
			return shared.NewValidationError("INVALID_PRICE", "Purchase price cannot be negative")
		}

		var d PurchaseOrderDetail
		if line.ID != uuid.Nil {
			stored, ok := existing[line.ID]
			if !ok {
				return shared.ErrNotFound.WithMessage("Purchase order detail %s not found", line.ID)
			}
			d = stored
		} else {
			d = PurchaseOrderDetail{
				ID:               uuid.New(),
				PurchaseOrderID:  o.ID,
				ReturnedQuantity: decimal.Zero,
				CreatedAt:        now,
			}
		}
		d.ProductID = line.ProductID
		d.PurchasePrice = line.PurchasePrice
		d.Quantity = line.Quantity
		d.TotalPrice = line.PurchasePrice.Mul(line.Quantity)
		d.UpdatedAt = now
		details = append(details, d)
	}

	o.Details = details
	o.recalculateTotals()
	return nil
}

// SetAppliedReceivables records how much supplier receivables offset this
// order and returns the delta against the previous application. The supplier
// side of the delta is settled by the receivables ledger.
func (o *PurchaseOrder) SetAppliedReceivables(amount decimal.Decimal) (decimal.Decimal, error) {
	if !o.CanModify() {
		return decimal.Zero, shared.ErrInvalidTransition.WithMessage("Cannot modify purchase order in %s status", o.Status)
	}
	if amount.IsNegative() {
		return decimal.Zero, shared.NewValidationError("INVALID_AMOUNT", "Applied receivables cannot be negative")
	}
	if amount.GreaterThan(o.SubTotal) {
		return decimal.Zero, shared.NewValidationError("INVALID_AMOUNT", "Applied receivables cannot exceed the subtotal")
	}
	delta := amount.Sub(o.AppliedReceivables)
	o.AppliedReceivables = amount
	o.recalculateTotals()
	return delta, nil
}

// ResetPaymentsIfOverpaid clears payment history when an edit has pushed the
// paid amount above the new grand total. It reports whether it did so.
func (o *PurchaseOrder) ResetPaymentsIfOverpaid() bool {
	if !o.PaidAmount.GreaterThan(o.GrandTotal) {
		return false
	}
	o.PaidAmount = decimal.Zero
	o.Payments = nil
	o.PaymentStatus = DerivePaymentStatus(o.PaidAmount, o.GrandTotal)
	return true
}

// RecordInitialPayment records an amount paid when the order is created
func (o *PurchaseOrder) RecordInitialPayment(amount decimal.Decimal, method string, paidBy uuid.UUID, now time.Time) error {
	if err := validateInitialPayment(amount, o.GrandTotal); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	_, err := o.Pay(amount, method, paidBy, now)
	return err
}

// Pay appends a payment and re-derives the payment status
func (o *PurchaseOrder) Pay(amount decimal.Decimal, method string, paidBy uuid.UUID, now time.Time) (*PurchaseOrderPayment, error) {
	if o.Status == StatusCancelled {
		return nil, shared.ErrInvalidTransition.WithMessage("Cannot pay a cancelled purchase order")
	}
	paid, err := addPayment(o.PaidAmount, o.GrandTotal, amount, method)
	if err != nil {
		return nil, err
	}
	payment := PurchaseOrderPayment{
		ID:              uuid.New(),
		PurchaseOrderID: o.ID,
		Amount:          amount,
		Method:          method,
		PaidBy:          paidBy,
		PaidAt:          now,
	}
	o.Payments = append(o.Payments, payment)
	o.PaidAmount = paid
	o.PaymentStatus = DerivePaymentStatus(o.PaidAmount, o.GrandTotal)
	o.Touch(now)
	return &payment, nil
}

// Finish marks the order as received
func (o *PurchaseOrder) Finish(now time.Time) error {
	if err := purchaseOrderTransitions.Check("purchase order", o.Status, StatusCompleted); err != nil {
		return err
	}
	o.Status = StatusCompleted
	o.CompletedAt = &now
	o.Touch(now)
	return nil
}

// Cancel moves the order to Cancelled; ledger reversal is the caller's job
func (o *PurchaseOrder) Cancel(now time.Time) error {
	if err := purchaseOrderTransitions.Check("purchase order", o.Status, StatusCancelled); err != nil {
		return err
	}
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.Touch(now)
	return nil
}

// CanModify returns true while the order may still be edited
func (o *PurchaseOrder) CanModify() bool {
	return o.Status == StatusInProgress
}

// CanDelete returns true while the order may be physically deleted
func (o *PurchaseOrder) CanDelete() bool {
	return o.Status == StatusInProgress
}

// GetDetail returns the line with the given ID, or nil
func (o *PurchaseOrder) GetDetail(detailID uuid.UUID) *PurchaseOrderDetail {
	for i := range o.Details {
		if o.Details[i].ID == detailID {
			return &o.Details[i]
		}
	}
	return nil
}

// DetailIDs returns the IDs of all lines
func (o *PurchaseOrder) DetailIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(o.Details))
	for i, d := range o.Details {
		ids[i] = d.ID
	}
	return ids
}

// ProductIDs returns the distinct products on the order
func (o *PurchaseOrder) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Details))
	for _, d := range o.Details {
		ids = append(ids, d.ProductID)
	}
	return ids
}

func (o *PurchaseOrder) recalculateTotals() {
	subTotal := decimal.Zero
	for _, d := range o.Details {
		subTotal = subTotal.Add(d.TotalPrice)
	}
	o.SubTotal = subTotal
	o.GrandTotal = subTotal.Sub(o.AppliedReceivables)
	o.PaymentStatus = DerivePaymentStatus(o.PaidAmount, o.GrandTotal)
}
