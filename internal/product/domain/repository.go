package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Search  string
	Status  Status
	SortBy  string
	OrderBy string
	Limit   int
	Offset  int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Product, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (int64, error)

	// AdjustStock adds delta to stock unless the result would drop below zero.
	AdjustStock(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, delta int64, updatedAt time.Time) (int64, error)
	CountSKU(ctx context.Context, db *gorm.DB, orgID snowflake.ID, sku string, excludeID snowflake.ID) (int64, error)
	LowStock(ctx context.Context, db *gorm.DB, orgID snowflake.ID, threshold int64) ([]Product, error)
}
