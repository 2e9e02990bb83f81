package domain

import "errors"

var (
	ErrInvalidOrganization    = errors.New("invalid_organization")
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidCustomerName    = errors.New("invalid_customer_name")
	ErrInvalidCustomerGST     = errors.New("invalid_customer_gst")
	ErrInvalidCustomerEmail   = errors.New("invalid_customer_email")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidPaymentStatus   = errors.New("invalid_payment_status")
	ErrInvalidItemName        = errors.New("invalid_item_name")
	ErrInvalidQuantity        = errors.New("invalid_quantity")
	ErrInvalidRate            = errors.New("invalid_rate")
	ErrInvalidTaxRate         = errors.New("invalid_tax_rate")
	ErrInvalidProductID       = errors.New("invalid_product_id")
	ErrInvalidDueDate         = errors.New("invalid_due_date")
	ErrInvalidCustomerState   = errors.New("invalid_customer_state")
	ErrNotFound               = errors.New("invoice_not_found")
	ErrPersistence            = errors.New("invoice_persistence_failed")
	ErrDuplicateInvoiceNumber = errors.New("duplicate_invoice_number")
	ErrNotPaid                = errors.New("invoice_not_paid")
)
