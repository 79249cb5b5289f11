package trade

import (
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseReturnDetail is a returned quantity of one purchase order line
type PurchaseReturnDetail struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseReturnID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchaseOrderDetailID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReturnPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnQuantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason                string          `gorm:"type:varchar(500)"`
	CreatedAt             time.Time
}

// TableName returns the table name for GORM
func (PurchaseReturnDetail) TableName() string {
	return "purchase_return_details"
}

// PurchaseReturnDetailInput is a submitted return line. A zero ReturnPrice
// defaults to the line's purchase price.
type PurchaseReturnDetailInput struct {
	PurchaseOrderDetailID uuid.UUID
	ReturnPrice           decimal.Decimal
	ReturnQuantity        decimal.Decimal
	Reason                string
}

// PurchaseReturn sends goods of a completed purchase order back to the supplier
type PurchaseReturn struct {
	shared.BaseEntity
	Code            string                 `gorm:"type:varchar(32);not null;uniqueIndex"`
	PurchaseOrderID uuid.UUID              `gorm:"type:uuid;not null;index"`
	ReturnType      ReturnType             `gorm:"type:varchar(20);not null"`
	Status          Status                 `gorm:"type:varchar(20);not null;index"`
	GrandTotal      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Remarks         string                 `gorm:"type:text"`
	CreatedBy       uuid.UUID              `gorm:"type:uuid"`
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	Details         []PurchaseReturnDetail `gorm:"foreignKey:PurchaseReturnID"`
}

// TableName returns the table name for GORM
func (PurchaseReturn) TableName() string {
	return "purchase_returns"
}

// NewPurchaseReturn builds a return against a completed purchase order. Each
// line must stay within the line's returnable quantity. Refund returns are
// completed immediately; replacement returns wait for Finish.
func NewPurchaseReturn(code string, order *PurchaseOrder, returnType ReturnType, lines []PurchaseReturnDetailInput, remarks string, now time.Time) (*PurchaseReturn, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Return code cannot be empty")
	}
	if order == nil {
		return nil, shared.NewValidationError("INVALID_ORDER", "Purchase order cannot be nil")
	}
	if !returnType.IsValid() {
		return nil, shared.NewValidationError("INVALID_RETURN_TYPE", "Unknown return type")
	}
	if order.Status != StatusCompleted {
		return nil, shared.ErrInvalidTransition.WithMessage("Can only return goods of a completed purchase order")
	}
	if len(lines) == 0 {
		return nil, shared.ErrEmptyDetails
	}

	pr := &PurchaseReturn{
		BaseEntity:      shared.NewBaseEntity(now),
		Code:            code,
		PurchaseOrderID: order.ID,
		ReturnType:      returnType,
		Status:          StatusInProgress,
		Remarks:         remarks,
	}
	if returnType == ReturnTypeRefund {
		pr.Status = StatusCompleted
		pr.CompletedAt = &now
	}

	seen := make(map[uuid.UUID]bool, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		if seen[line.PurchaseOrderDetailID] {
			return nil, shared.ErrDuplicateProduct.WithMessage("Purchase order detail %s appears more than once", line.PurchaseOrderDetailID)
		}
		seen[line.PurchaseOrderDetailID] = true

		pod := order.GetDetail(line.PurchaseOrderDetailID)
		if pod == nil {
			return nil, shared.ErrNotFound.WithMessage("Purchase order detail %s not found on order %s", line.PurchaseOrderDetailID, order.Code)
		}
		if !line.ReturnQuantity.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Return quantity must be positive")
		}
		if line.ReturnQuantity.GreaterThan(pod.ReturnableQuantity()) {
			return nil, shared.ErrOverReturn.WithMessage(
				"Return quantity %s exceeds the %s still returnable", line.ReturnQuantity.String(), pod.ReturnableQuantity().String())
		}
		price := line.ReturnPrice
		if price.IsNegative() {
			return nil, shared.NewValidationError("INVALID_PRICE", "Return price cannot be negative")
		}
		if price.IsZero() {
			price = pod.PurchasePrice
		}
		lineTotal := price.Mul(line.ReturnQuantity)
		pr.Details = append(pr.Details, PurchaseReturnDetail{
			ID:                    uuid.New(),
			PurchaseReturnID:      pr.ID,
			PurchaseOrderDetailID: pod.ID,
			ReturnPrice:           price,
			ReturnQuantity:        line.ReturnQuantity,
			TotalPrice:            lineTotal,
			Reason:                line.Reason,
			CreatedAt:             now,
		})
		total = total.Add(lineTotal)
	}
	pr.GrandTotal = total
	return pr, nil
}

// Finish completes a replacement return once the replacement goods arrive
func (r *PurchaseReturn) Finish(now time.Time) error {
	if r.ReturnType != ReturnTypeReplacementGoods {
		return shared.ErrInvalidTransition.WithMessage("Only replacement returns are finished explicitly")
	}
	if err := purchaseReturnTransitions.Check("purchase return", r.Status, StatusCompleted); err != nil {
		return err
	}
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.Touch(now)
	return nil
}

// Cancel moves the return to Cancelled; ledger reversal is the caller's job
func (r *PurchaseReturn) Cancel(now time.Time) error {
	if err := purchaseReturnTransitions.Check("purchase return", r.Status, StatusCancelled); err != nil {
		return err
	}
	r.Status = StatusCancelled
	r.CancelledAt = &now
	r.Touch(now)
	return nil
}

// IsRefund reports whether the supplier settles this return with credit
func (r *PurchaseReturn) IsRefund() bool {
	return r.ReturnType == ReturnTypeRefund
}
