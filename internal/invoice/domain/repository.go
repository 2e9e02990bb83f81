package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Search        string
	SortBy        string
	OrderBy       string
	Limit         int
	Offset        int
}

type Totals struct {
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]Invoice, error)
	CountByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)
	NumberExists(ctx context.Context, db *gorm.DB, orgID snowflake.ID, number string) (bool, error)
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) (int64, error)
	UpdateTotals(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, totals Totals, updatedAt time.Time) (int64, error)
	MarkAsPaid(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, updatedAt time.Time) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (int64, error)

	InsertItem(ctx context.Context, db *gorm.DB, item *InvoiceItem) error
	ListItems(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]InvoiceItem, error)
	MaxItemPosition(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) (int, error)
	DeleteItems(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) error

	FindSeller(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Seller, error)
}
