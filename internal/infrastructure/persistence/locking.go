package persistence

import (
	"errors"
	"fmt"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds SELECT ... FOR UPDATE. The sqlite dialect drops the clause;
// there the single connection already serializes writers.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translateNotFound maps gorm's not-found error onto the domain sentinel
func translateNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound.WithMessage("%s not found", what)
	}
	return err
}

// deleteStaleChildren removes child rows of parentID whose IDs are not in keep
func deleteStaleChildren(tx *gorm.DB, model any, foreignKey string, parentID uuid.UUID, keep []uuid.UUID) error {
	query := tx.Where(foreignKey+" = ?", parentID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	if err := query.Delete(model).Error; err != nil {
		return fmt.Errorf("failed to delete stale rows: %w", err)
	}
	return nil
}

// dateRange bounds created_at by r; zero bounds are ignored
func dateRange(db *gorm.DB, r shared.DateRange) *gorm.DB {
	if !r.From.IsZero() {
		db = db.Where("created_at >= ?", r.From)
	}
	if !r.To.IsZero() {
		db = db.Where("created_at <= ?", r.To)
	}
	return db
}

// translateDuplicate maps a unique-key violation onto ErrAlreadyExists
func translateDuplicate(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists.WithMessage("%s already exists", what)
	}
	return err
}
