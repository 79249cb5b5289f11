package partner

import (
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Supplier represents a supplier. Receivables is credit the supplier owes us
// (typically from refunded returns) which can be applied as a purchase discount.
type Supplier struct {
	shared.BaseEntity
	Code             string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Phone            string          `gorm:"type:varchar(50)"`
	Address          string          `gorm:"type:text"`
	Receivables      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReceivablesLimit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier with no receivables
func NewSupplier(code, name string, receivablesLimit decimal.Decimal, now time.Time) (*Supplier, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Supplier code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if receivablesLimit.IsNegative() {
		return nil, shared.NewValidationError("INVALID_LIMIT", "Receivables limit cannot be negative")
	}
	return &Supplier{
		BaseEntity:       shared.NewBaseEntity(now),
		Code:             code,
		Name:             name,
		Receivables:      decimal.Zero,
		ReceivablesLimit: receivablesLimit,
	}, nil
}

// SetContact sets phone and address
func (s *Supplier) SetContact(phone, address string) {
	s.Phone = phone
	s.Address = address
}

// ApplyReceivables consumes amount of the supplier's receivables as a discount.
// It never drives receivables negative.
func (s *Supplier) ApplyReceivables(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if amount.GreaterThan(s.Receivables) {
		return shared.ErrOverApplied.WithMessage(
			"Cannot apply %s: supplier %s has only %s receivables", amount.String(), s.Code, s.Receivables.String())
	}
	s.Receivables = s.Receivables.Sub(amount)
	return nil
}

// ReleaseReceivables returns amount to the supplier's receivables, either
// because an application was undone or because a refund was credited.
func (s *Supplier) ReleaseReceivables(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	next := s.Receivables.Add(amount)
	if next.GreaterThan(s.ReceivablesLimit) {
		return shared.ErrReceivablesLimit.WithMessage(
			"Supplier %s receivables would reach %s, above the limit of %s", s.Code, next.String(), s.ReceivablesLimit.String())
	}
	s.Receivables = next
	return nil
}

// AdjustReceivables applies a signed delta: a positive delta is an
// application, a negative delta releases.
func (s *Supplier) AdjustReceivables(delta decimal.Decimal) error {
	switch {
	case delta.IsPositive():
		return s.ApplyReceivables(delta)
	case delta.IsNegative():
		return s.ReleaseReceivables(delta.Neg())
	}
	return nil
}
