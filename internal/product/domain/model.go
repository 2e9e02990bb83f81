package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func ParseStatus(value string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusActive, StatusInactive:
		return s, true
	default:
		return "", false
	}
}

// Product is a sellable item with a running stock count. SKU is unique per
// organization.
type Product struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	OrgID       snowflake.ID      `gorm:"column:org_id;not null;uniqueIndex:ux_products_org_sku,priority:1"`
	Name        string            `gorm:"column:name;size:255;not null"`
	SKU         string            `gorm:"column:sku;size:100;not null;uniqueIndex:ux_products_org_sku,priority:2"`
	HSNSAC      string            `gorm:"column:hsn_sac;size:16;not null;default:''"`
	Description string            `gorm:"column:description;size:2000;not null;default:''"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	TaxRate     decimal.Decimal   `gorm:"column:tax_rate;type:numeric(5,2);not null;default:18"`
	Stock       int64             `gorm:"column:stock;not null;default:0"`
	Unit        string            `gorm:"column:unit;size:32;not null;default:'piece'"`
	Status      Status            `gorm:"column:status;size:16;not null;default:'active'"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt   time.Time         `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;not null"`
}

func (Product) TableName() string { return "products" }
