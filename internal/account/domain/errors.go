package domain

import (
	"errors"

	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidGSTNumber    = taxdomain.ErrInvalidGSTNumber
	ErrInvalidPANNumber    = errors.New("invalid_pan_number")
	ErrInvalidState        = taxdomain.ErrInvalidState
	ErrInvalidPincode      = errors.New("invalid_pincode")
	ErrNotFound            = errors.New("organization_not_found")
)
