package partner

import (
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
)

// Customer represents a customer
type Customer struct {
	shared.BaseEntity
	Code    string `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name    string `gorm:"type:varchar(200);not null"`
	Phone   string `gorm:"type:varchar(50)"`
	Address string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(code, name string, now time.Time) (*Customer, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Customer code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Customer name cannot be empty")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(now),
		Code:       code,
		Name:       name,
	}, nil
}

// SetContact sets phone and address
func (c *Customer) SetContact(phone, address string) {
	c.Phone = phone
	c.Address = address
}
