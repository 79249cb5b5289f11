package persistence

import (
	"time"

	"github.com/erp/tradeledger/internal/domain/catalog"
	"github.com/erp/tradeledger/internal/domain/partner"
	"github.com/erp/tradeledger/internal/domain/trade"
)

// CodeSequence is the per-prefix counter behind generated document codes
type CodeSequence struct {
	Prefix    string `gorm:"type:varchar(10);primaryKey"`
	LastValue int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (CodeSequence) TableName() string {
	return "code_sequences"
}

// Models lists every persisted type in dependency order
func Models() []any {
	return []any{
		&CodeSequence{},
		&catalog.Product{},
		&partner.Supplier{},
		&partner.Customer{},
		&trade.PurchaseOrder{},
		&trade.PurchaseOrderDetail{},
		&trade.PurchaseOrderPayment{},
		&trade.PurchaseReturn{},
		&trade.PurchaseReturnDetail{},
		&trade.SalesOrder{},
		&trade.SalesOrderProductDetail{},
		&trade.SalesOrderServiceDetail{},
		&trade.SalesOrderPayment{},
		&trade.SalesReturn{},
		&trade.SalesReturnProductDetail{},
		&trade.SalesReturnServiceDetail{},
	}
}
