package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service manages the inventory of the organization carried in ctx.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	UpdateStock(ctx context.Context, id string, delta int64) (*Response, error)
	SKUExists(ctx context.Context, sku string, excludeID string) (bool, error)
	LowStock(ctx context.Context, threshold *int64) ([]Response, error)
}

type ListRequest struct {
	Search  string
	Status  string
	SortBy  string
	OrderBy string
	Limit   int
	Offset  int
}

type CreateRequest struct {
	Name        string           `json:"name"`
	SKU         string           `json:"sku"`
	HSNSAC      string           `json:"hsn_sac"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	TaxRate     *decimal.Decimal `json:"tax_rate" binding:"omitempty,gst_rate"`
	Stock       int64            `json:"stock"`
	Unit        string           `json:"unit"`
	Status      string           `json:"status"`
	Metadata    map[string]any   `json:"metadata"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	ID          string           `json:"-"`
	Name        *string          `json:"name"`
	SKU         *string          `json:"sku"`
	HSNSAC      *string          `json:"hsn_sac"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	TaxRate     *decimal.Decimal `json:"tax_rate" binding:"omitempty,gst_rate"`
	Stock       *int64           `json:"stock"`
	Unit        *string          `json:"unit"`
	Status      *string          `json:"status"`
	Metadata    map[string]any   `json:"metadata"`
}

type StockRequest struct {
	Delta int64 `json:"delta"`
}

type Response struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	HSNSAC         string          `json:"hsn_sac,omitempty"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Stock          int64           `json:"stock"`
	Unit           string          `json:"unit"`
	Status         Status          `json:"status"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
