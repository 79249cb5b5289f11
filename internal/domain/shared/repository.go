package shared

import (
	"strings"
	"time"
)

// Pagination carries paging and ordering options shared by all typed filters
type Pagination struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize fills defaults and restricts OrderBy to the allowed columns
func (p *Pagination) Normalize(allowed ...string) {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	valid := p.OrderBy == "created_at"
	for _, col := range allowed {
		if p.OrderBy == col {
			valid = true
			break
		}
	}
	if !valid {
		p.OrderBy = "created_at"
	}
	if strings.ToLower(p.OrderDir) == "asc" {
		p.OrderDir = "asc"
	} else {
		p.OrderDir = "desc"
	}
}

// Offset returns the row offset of the current page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// OrderClause returns the "column dir" string for the storage layer
func (p Pagination) OrderClause() string {
	return p.OrderBy + " " + p.OrderDir
}

// DateRange bounds a created_at window; zero values are ignored
type DateRange struct {
	From time.Time
	To   time.Time
}
