package trade

import (
	"fmt"

	"github.com/erp/tradeledger/internal/domain/shared"
)

// Status is the lifecycle status shared by orders and returns
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// TransitionTable lists, per source status, the statuses an entity may move to.
// Anything not listed is rejected.
type TransitionTable map[Status][]Status

// Allows reports whether from -> to is listed
func (t TransitionTable) Allows(from, to Status) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Check returns a state conflict error when from -> to is not listed
func (t TransitionTable) Check(entity string, from, to Status) error {
	if t.Allows(from, to) {
		return nil
	}
	return shared.ErrInvalidTransition.WithMessage("Cannot move %s from %s to %s", entity, from, to)
}

var (
	purchaseOrderTransitions = TransitionTable{
		StatusInProgress: {StatusCompleted, StatusCancelled},
		StatusCompleted:  {StatusCancelled},
	}
	salesOrderTransitions = TransitionTable{
		StatusInProgress: {StatusCompleted, StatusCancelled},
		StatusCompleted:  {StatusCancelled},
	}
	purchaseReturnTransitions = TransitionTable{
		StatusInProgress: {StatusCompleted, StatusCancelled},
		StatusCompleted:  {StatusCancelled},
	}
	salesReturnTransitions = TransitionTable{
		StatusCompleted: {StatusCancelled},
	}
)

// PaymentStatus is derived from paid amount and grand total, never set directly
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// IsValid checks if the payment status is a known PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

// ReturnType is how a supplier settles a purchase return
type ReturnType string

const (
	ReturnTypeReplacementGoods ReturnType = "REPLACEMENT_GOODS"
	ReturnTypeRefund           ReturnType = "REFUND"
)

// IsValid checks if the return type is a known ReturnType
func (t ReturnType) IsValid() bool {
	return t == ReturnTypeReplacementGoods || t == ReturnTypeRefund
}

// PaymentType is how a sales order is settled
type PaymentType string

const (
	PaymentTypeDownPayment PaymentType = "DOWN_PAYMENT"
	PaymentTypeFull        PaymentType = "FULL"
)

// IsValid checks if the payment type is a known PaymentType
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeDownPayment || t == PaymentTypeFull
}

// ParseStatus converts a raw string into a Status
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", raw))
	}
	return s, nil
}
