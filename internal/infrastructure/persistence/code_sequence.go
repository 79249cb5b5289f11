package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"gorm.io/gorm"
)

// nextCodeSQL increments the counter in a single statement so that two
// concurrent transactions can never read the same value.
const nextCodeSQL = `INSERT INTO code_sequences (prefix, last_value, updated_at) VALUES (?, 1, ?)
ON CONFLICT (prefix) DO UPDATE SET last_value = code_sequences.last_value + 1, updated_at = excluded.updated_at
RETURNING last_value`

// codeTables maps each prefix to the table holding its codes
var codeTables = map[shared.CodePrefix]string{
	shared.PrefixPurchaseOrder:  "purchase_orders",
	shared.PrefixSalesOrder:     "sales_orders",
	shared.PrefixPurchaseReturn: "purchase_returns",
	shared.PrefixSalesReturn:    "sales_returns",
	shared.PrefixProduct:        "products",
	shared.PrefixSupplier:       "suppliers",
	shared.PrefixCustomer:       "customers",
}

// GormCodeSequence generates codes from the code_sequences table. Used inside
// a transaction, a rolled back creation also rolls back its number.
type GormCodeSequence struct {
	db    *gorm.DB
	width int
}

// NewGormCodeSequence creates a GormCodeSequence rendering width-digit counters
func NewGormCodeSequence(db *gorm.DB, width int) *GormCodeSequence {
	if width <= 0 {
		width = shared.DefaultCodeWidth
	}
	return &GormCodeSequence{db: db, width: width}
}

// Next returns the next code for prefix
func (s *GormCodeSequence) Next(ctx context.Context, prefix shared.CodePrefix) (string, error) {
	if _, ok := codeTables[prefix]; !ok {
		return "", shared.NewValidationError("INVALID_PREFIX", fmt.Sprintf("Unknown code prefix %q", prefix))
	}
	var value int64
	if err := s.db.WithContext(ctx).Raw(nextCodeSQL, string(prefix), time.Now().UTC()).Scan(&value).Error; err != nil {
		return "", fmt.Errorf("failed to advance code sequence %s: %w", prefix, err)
	}
	return shared.FormatCode(prefix, value, s.width), nil
}

// Current returns the highest number already handed out for prefix: the
// larger of the stored counter and the highest code present in the owning
// table. It is the seed for counters kept outside the database.
func (s *GormCodeSequence) Current(ctx context.Context, prefix shared.CodePrefix) (int64, error) {
	table, ok := codeTables[prefix]
	if !ok {
		return 0, shared.NewValidationError("INVALID_PREFIX", fmt.Sprintf("Unknown code prefix %q", prefix))
	}

	var counter int64
	if err := s.db.WithContext(ctx).Model(&CodeSequence{}).
		Select("COALESCE(MAX(last_value), 0)").
		Where("prefix = ?", string(prefix)).
		Scan(&counter).Error; err != nil {
		return 0, fmt.Errorf("failed to read code sequence %s: %w", prefix, err)
	}

	var maxCode sql.NullString
	if err := s.db.WithContext(ctx).Table(table).
		Select("MAX(code)").
		Where("code LIKE ?", string(prefix)+"%").
		Scan(&maxCode).Error; err != nil {
		return 0, fmt.Errorf("failed to read highest %s code: %w", prefix, err)
	}
	if maxCode.Valid {
		if n, err := strconv.ParseInt(strings.TrimPrefix(maxCode.String, string(prefix)), 10, 64); err == nil && n > counter {
			counter = n
		}
	}
	return counter, nil
}

var _ shared.CodeGenerator = (*GormCodeSequence)(nil)
