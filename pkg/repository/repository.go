package repository

import (
	"context"

	"github.com/smallbiznis/gstinvoice/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm-backed store scoped by struct filters.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Updates(ctx context.Context, query *T, fields map[string]any) (int64, error)
	Delete(ctx context.Context, query *T) (int64, error)
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
}
