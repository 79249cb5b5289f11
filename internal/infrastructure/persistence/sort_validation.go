package persistence

import (
	"strings"

	"github.com/erp/tradeledger/internal/domain/shared"
	"gorm.io/gorm"
)

// Paginate normalizes p against the allowed sort columns and applies
// ordering, offset and limit. Column names never reach SQL unless they are
// whitelisted.
func Paginate(p shared.Pagination, allowed []string) func(*gorm.DB) *gorm.DB {
	p.Normalize(allowed...)
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(p.OrderClause()).Offset(p.Offset()).Limit(p.PageSize)
	}
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
