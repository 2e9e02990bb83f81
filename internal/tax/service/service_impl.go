package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstinvoice/internal/config"
	"github.com/smallbiznis/gstinvoice/internal/tax/domain"
	"go.uber.org/fx"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

type Params struct {
	fx.In

	Settings *config.GSTSettingsHolder `optional:"true"`
}

// Calculator implements domain.Calculator. Every monetary step is rounded to
// two places half away from zero, and CGST/SGST halves are rounded
// independently so their sum may differ from the total tax by one paisa.
type Calculator struct {
	settings *config.GSTSettingsHolder
}

func New(p Params) domain.Calculator {
	return &Calculator{settings: p.Settings}
}

// NewCalculator returns a calculator backed by the default rate slabs.
func NewCalculator() *Calculator {
	return &Calculator{}
}

func (c *Calculator) CalculateTax(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}

func (c *Calculator) CalculateCGSTSGST(amount, rate decimal.Decimal) domain.SplitResult {
	totalTax := c.CalculateTax(amount, rate)
	half := totalTax.Div(two).Round(2)
	return domain.SplitResult{
		CGST:  half,
		SGST:  half,
		Total: half.Add(half),
	}
}

func (c *Calculator) CalculateIGST(amount, rate decimal.Decimal) domain.IGSTResult {
	igst := c.CalculateTax(amount, rate)
	return domain.IGSTResult{IGST: igst, Total: igst}
}

func (c *Calculator) IsInterState(sellerState, buyerState string) bool {
	return !strings.EqualFold(strings.TrimSpace(sellerState), strings.TrimSpace(buyerState))
}

// CalculateGSTBreakdown picks IGST only when both states are known and differ.
func (c *Calculator) CalculateGSTBreakdown(amount, rate decimal.Decimal, sellerState, buyerState string) domain.Breakdown {
	out := domain.Breakdown{
		Amount:  amount,
		TaxRate: rate,
		CGST:    decimal.Zero,
		SGST:    decimal.Zero,
		IGST:    decimal.Zero,
	}

	if strings.TrimSpace(sellerState) != "" && strings.TrimSpace(buyerState) != "" && c.IsInterState(sellerState, buyerState) {
		igst := c.CalculateIGST(amount, rate)
		out.Type = domain.TaxTypeIGST
		out.IGST = igst.IGST
		out.TotalTax = igst.Total
	} else {
		split := c.CalculateCGSTSGST(amount, rate)
		out.Type = domain.TaxTypeCGSTSGST
		out.CGST = split.CGST
		out.SGST = split.SGST
		out.TotalTax = split.Total
	}

	out.TotalAmount = amount.Add(out.TotalTax)
	return out
}

func (c *Calculator) ReverseCalculate(totalAmount, rate decimal.Decimal) domain.ReverseResult {
	divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	base := totalAmount.Div(divisor).Round(2)
	return domain.ReverseResult{
		BaseAmount: base,
		TaxAmount:  totalAmount.Sub(base).Round(2),
		TaxRate:    rate,
	}
}

func (c *Calculator) RateSlabs() []domain.RateSlab {
	rates := config.DefaultGSTSettings().RateSlabs
	if c.settings != nil {
		if configured := c.settings.Get().RateSlabs; len(configured) > 0 {
			rates = configured
		}
	}

	slabs := make([]domain.RateSlab, 0, len(rates))
	for _, r := range rates {
		rate := decimal.NewFromFloat(r)
		slabs = append(slabs, domain.RateSlab{Rate: rate, Label: slabLabel(rate)})
	}
	return slabs
}

func (c *Calculator) IsStandardRate(rate decimal.Decimal) bool {
	for _, slab := range c.RateSlabs() {
		if slab.Rate.Equal(rate) {
			return true
		}
	}
	return false
}

var _ domain.Calculator = (*Calculator)(nil)
