package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single comparison. Field names are never taken from user input.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, op), cond.Value)
	})
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
	Default string
}

func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{
		SortBy:  sortBy,
		OrderBy: orderBy,
		Allow:   allow,
	}
}

// WithSortBy orders by a whitelisted column, falling back to Default (or created_at) DESC.
func WithSortBy(s QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := strings.ToLower(strings.TrimSpace(s.SortBy))
		if !s.Allow[column] {
			column = s.Default
		}
		if column == "" {
			column = "created_at"
		}

		direction := "DESC"
		if strings.EqualFold(strings.TrimSpace(s.OrderBy), "asc") {
			direction = "ASC"
		}
		return db.Order(column + " " + direction).Order("id " + direction)
	})
}

type Page struct {
	Limit  int
	Offset int
}

const MaxLimit = 250

// ApplyPagination applies limit/offset; a zero limit leaves the query unbounded.
func ApplyPagination(page Page) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if page.Limit > 0 {
			limit := page.Limit
			if limit > MaxLimit {
				limit = MaxLimit
			}
			db = db.Limit(limit)
		}
		if page.Offset > 0 {
			db = db.Offset(page.Offset)
		}
		return db
	})
}
