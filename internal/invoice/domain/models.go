// Package domain contains persistence models for invoicing.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Status represents invoice lifecycle states.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus is tracked independently of Status.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

func ParseStatus(value string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusDraft, StatusSent, StatusCompleted, StatusCancelled:
		return s, true
	default:
		return "", false
	}
}

func ParsePaymentStatus(value string) (PaymentStatus, bool) {
	switch s := PaymentStatus(strings.ToLower(strings.TrimSpace(value))); s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid:
		return s, true
	default:
		return "", false
	}
}

// Invoice is a GST tax invoice. Subtotal, TaxAmount and TotalAmount are
// derived from the items and rebuilt by RecalculateTotals.
type Invoice struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	OrgID           snowflake.ID    `gorm:"column:org_id;not null;uniqueIndex:ux_invoices_org_number,priority:1"`
	InvoiceNumber   string          `gorm:"column:invoice_number;size:64;not null;uniqueIndex:ux_invoices_org_number,priority:2"`
	CustomerName    string          `gorm:"column:customer_name;size:255;not null"`
	CustomerEmail   string          `gorm:"column:customer_email;size:320;not null;default:''"`
	CustomerPhone   string          `gorm:"column:customer_phone;size:32;not null;default:''"`
	CustomerGST     string          `gorm:"column:customer_gst;size:15;not null;default:''"`
	CustomerAddress string          `gorm:"column:customer_address;size:512;not null;default:''"`
	CustomerState   string          `gorm:"column:customer_state;size:8;not null;default:''"`
	InvoiceDate     time.Time       `gorm:"column:invoice_date;not null"`
	DueDate         *time.Time      `gorm:"column:due_date"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	Status          Status          `gorm:"column:status;size:16;not null;default:'draft'"`
	PaymentStatus   PaymentStatus   `gorm:"column:payment_status;size:16;not null;default:'pending'"`
	Notes           string          `gorm:"column:notes;size:2000;not null;default:''"`
	CreatedAt       time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;not null"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is a line on an invoice. Amount is the tax-inclusive line
// total: quantity * rate + tax_amount.
type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	OrgID       snowflake.ID    `gorm:"column:org_id;not null;index"`
	InvoiceID   snowflake.ID    `gorm:"column:invoice_id;not null;index"`
	ProductID   *snowflake.ID   `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name;size:255;not null"`
	Description string          `gorm:"column:description;size:2000;not null;default:''"`
	HSNSAC      string          `gorm:"column:hsn_sac;size:16;not null;default:''"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	Unit        string          `gorm:"column:unit;size:32;not null"`
	Rate        decimal.Decimal `gorm:"column:rate;type:numeric(12,2);not null"`
	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,2);not null"`
	TaxAmount   decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Position    int             `gorm:"column:position;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// LineAmount is quantity * rate before tax, unrounded.
func (i InvoiceItem) LineAmount() decimal.Decimal {
	return i.Quantity.Mul(i.Rate)
}

// Seller is the issuing business as printed on the invoice.
type Seller struct {
	BusinessName string `gorm:"column:business_name"`
	GSTNumber    string `gorm:"column:gst_number"`
	PANNumber    string `gorm:"column:pan_number"`
	Address      string `gorm:"column:address"`
	City         string `gorm:"column:city"`
	State        string `gorm:"column:state"`
	Pincode      string `gorm:"column:pincode"`
	Phone        string `gorm:"column:phone"`
}
