package shared

import (
	"context"
	"fmt"
)

// CodePrefix is the fixed prefix of a human-readable document code
type CodePrefix string

const (
	PrefixPurchaseOrder  CodePrefix = "PO"
	PrefixSalesOrder     CodePrefix = "SO"
	PrefixPurchaseReturn CodePrefix = "PR"
	PrefixSalesReturn    CodePrefix = "SR"
	PrefixProduct        CodePrefix = "PRD"
	PrefixSupplier       CodePrefix = "SUP"
	PrefixCustomer       CodePrefix = "CUS"
)

// AllCodePrefixes lists every prefix in use
var AllCodePrefixes = []CodePrefix{
	PrefixPurchaseOrder,
	PrefixSalesOrder,
	PrefixPurchaseReturn,
	PrefixSalesReturn,
	PrefixProduct,
	PrefixSupplier,
	PrefixCustomer,
}

// DefaultCodeWidth is the zero-padded width of the numeric part
const DefaultCodeWidth = 8

// FormatCode renders prefix and sequence number, e.g. PO00000042
func FormatCode(prefix CodePrefix, seq int64, width int) string {
	if width <= 0 {
		width = DefaultCodeWidth
	}
	return fmt.Sprintf("%s%0*d", prefix, width, seq)
}

// CodeGenerator hands out unique, monotonically increasing codes per prefix.
// Implementations must be safe under concurrent use.
type CodeGenerator interface {
	Next(ctx context.Context, prefix CodePrefix) (string, error)
}
