package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
)

// Service is the invoice aggregator. Every operation is scoped to the
// organization carried in ctx.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	AddItem(ctx context.Context, invoiceID string, req ItemInput) (*ItemResponse, error)
	RecalculateTotals(ctx context.Context, invoiceID string) error
	GenerateInvoiceNumber(ctx context.Context) (string, error)
	MarkAsPaid(ctx context.Context, invoiceID string) error
	RenderPDF(ctx context.Context, invoiceID string) (*Document, error)
	RenderReceipt(ctx context.Context, invoiceID string) (*Document, error)
}

type ListRequest struct {
	Status        string
	PaymentStatus string
	Search        string
	SortBy        string
	OrderBy       string
	Limit         int
	Offset        int
}

type CreateRequest struct {
	InvoiceNumber   string      `json:"invoice_number"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   string      `json:"customer_phone"`
	CustomerGST     string      `json:"customer_gst" binding:"omitempty,gstin"`
	CustomerAddress string      `json:"customer_address"`
	CustomerState   string      `json:"customer_state"`
	Status          string      `json:"status"`
	PaymentStatus   string      `json:"payment_status"`
	InvoiceDate     *time.Time  `json:"invoice_date"`
	DueDate         *time.Time  `json:"due_date"`
	Notes           string      `json:"notes"`
	Items           []ItemInput `json:"items" binding:"dive"`
}

type ItemInput struct {
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Description string           `json:"description"`
	HSNSAC      string           `json:"hsn_sac"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit"`
	Rate        decimal.Decimal  `json:"rate"`
	TaxRate     *decimal.Decimal `json:"tax_rate" binding:"omitempty,gst_rate"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	ID              string     `json:"-"`
	CustomerName    *string    `json:"customer_name"`
	CustomerEmail   *string    `json:"customer_email"`
	CustomerPhone   *string    `json:"customer_phone"`
	CustomerGST     *string    `json:"customer_gst"`
	CustomerAddress *string    `json:"customer_address"`
	CustomerState   *string    `json:"customer_state"`
	Status          *string    `json:"status"`
	PaymentStatus   *string    `json:"payment_status"`
	DueDate         *time.Time `json:"due_date"`
	Notes           *string    `json:"notes"`
}

type ItemResponse struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	ProductID   *string         `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Description string          `json:"description,omitempty"`
	HSNSAC      string          `json:"hsn_sac,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Rate        decimal.Decimal `json:"rate"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Amount      decimal.Decimal `json:"amount"`
	Position    int             `json:"position"`
	CreatedAt   time.Time       `json:"created_at"`
}

// GSTSummary splits the invoice tax by component for display.
type GSTSummary struct {
	Type        taxdomain.TaxType `json:"type"`
	SellerState string            `json:"seller_state,omitempty"`
	BuyerState  string            `json:"buyer_state,omitempty"`
	CGST        decimal.Decimal   `json:"cgst"`
	SGST        decimal.Decimal   `json:"sgst"`
	IGST        decimal.Decimal   `json:"igst"`
}

type Response struct {
	ID              string          `json:"id"`
	OrganizationID  string          `json:"organization_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	CustomerGST     string          `json:"customer_gst,omitempty"`
	CustomerAddress string          `json:"customer_address,omitempty"`
	CustomerState   string          `json:"customer_state,omitempty"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Notes           string          `json:"notes,omitempty"`
	Items           []ItemResponse  `json:"items,omitempty"`
	GST             *GSTSummary     `json:"gst,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Document is a rendered invoice file.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}
