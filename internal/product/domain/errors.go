package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidSKU          = errors.New("invalid_sku")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
	ErrInvalidStock        = errors.New("invalid_stock")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidThreshold    = errors.New("invalid_threshold")
	ErrInsufficientStock   = errors.New("insufficient_stock")
	ErrSKUExists           = errors.New("sku_exists")
	ErrNotFound            = errors.New("product_not_found")
	ErrPersistence         = errors.New("product_persistence_failed")
)
