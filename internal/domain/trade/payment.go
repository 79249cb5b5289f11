package trade

import (
	"strings"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DerivePaymentStatus is the only way a payment status is produced
func DerivePaymentStatus(paidAmount, grandTotal decimal.Decimal) PaymentStatus {
	if paidAmount.Equal(grandTotal) {
		return PaymentStatusPaid
	}
	return PaymentStatusUnpaid
}

// addPayment validates a payment against the outstanding balance and returns
// the new paid amount.
func addPayment(paidAmount, grandTotal, amount decimal.Decimal, method string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return paidAmount, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if strings.TrimSpace(method) == "" {
		return paidAmount, shared.NewValidationError("INVALID_METHOD", "Payment method cannot be empty")
	}
	next := paidAmount.Add(amount)
	if next.GreaterThan(grandTotal) {
		return paidAmount, shared.ErrOverpayment.WithMessage(
			"Payment of %s exceeds the outstanding %s", amount.String(), grandTotal.Sub(paidAmount).String())
	}
	return next, nil
}

// validateInitialPayment checks an amount paid at creation time
func validateInitialPayment(paidAmount, grandTotal decimal.Decimal) error {
	if paidAmount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Paid amount cannot be negative")
	}
	if paidAmount.GreaterThan(grandTotal) {
		return shared.ErrOverpayment.WithMessage(
			"Paid amount %s exceeds grand total %s", paidAmount.String(), grandTotal.String())
	}
	return nil
}
