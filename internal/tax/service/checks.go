package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstinvoice/internal/tax/domain"
)

// CheckTaxRate accepts rates from 0 to 100 with at most two decimals, the
// precision tax amounts are stored at.
func (c *Calculator) CheckTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) || !rate.Equal(rate.Round(2)) {
		return domain.ErrInvalidTaxRate
	}
	return nil
}

func (c *Calculator) CheckGSTNumber(value string) error {
	if !c.ValidateGSTNumber(strings.TrimSpace(value)) {
		return domain.ErrInvalidGSTNumber
	}
	return nil
}

// CheckState accepts a two digit code from the state list. Blank codes are
// the caller's concern.
func (c *Calculator) CheckState(code string) error {
	if _, ok := c.StateName(code); !ok {
		return domain.ErrInvalidState
	}
	return nil
}
